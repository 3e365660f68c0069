package classify

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"attendance_engine/internal/attendance"
)

// modelLabels is the class order the exported model was trained with
// (alphabetical one-hot encoding of the status column).
var modelLabels = []attendance.Status{
	attendance.StatusAbsent,
	attendance.StatusLate,
	attendance.StatusPresent,
}

// ortEnv manages process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Model wraps an ONNX attendance-status model. Input is a single
// [1,3] float32 tensor of [late_minutes, hour, minute]; output is a
// [1,len(modelLabels)] score tensor.
type Model struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	classes    int64
}

// LoadModel opens the model at path. The ONNX Runtime shared library is
// expected alongside the model file.
func LoadModel(path string) (*Model, error) {
	libPath := filepath.Join(filepath.Dir(path), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("model: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("model: read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("model: expected 1 input tensor, got %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("model: model has no outputs")
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 2 {
		return nil, fmt.Errorf("model: expected 2D output tensor, got %v", outDims)
	}
	classes := outDims[1]
	if classes != int64(len(modelLabels)) {
		return nil, fmt.Errorf("model: expected %d classes, got %d", len(modelLabels), classes)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("model: session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("model: create session: %w", err)
	}

	return &Model{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		classes:    classes,
	}, nil
}

// Predict scores one arrival and returns the highest-scoring status.
func (m *Model) Predict(lateMinutes, hour, minute int) (attendance.Status, error) {
	features := []float32{float32(lateMinutes), float32(hour), float32(minute)}
	in, err := ort.NewTensor(ort.NewShape(1, 3), features)
	if err != nil {
		return "", fmt.Errorf("model: input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, m.classes))
	if err != nil {
		return "", fmt.Errorf("model: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return "", fmt.Errorf("model: inference: %w", err)
	}

	scores := out.GetData()
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if best >= len(modelLabels) {
		return "", fmt.Errorf("model: class index %d out of range", best)
	}
	return modelLabels[best], nil
}

// Close releases the session.
func (m *Model) Close() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
