package vision

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXPredictor runs a pretrained InceptionV3 ImageNet export through ONNX
// Runtime. One session serves all requests; onnxruntime sessions are safe for
// concurrent Run calls.
type ONNXPredictor struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

// NewONNXPredictor initializes the runtime environment (once per process) and
// loads the model. libraryPath may be empty to use the default shared library
// lookup.
func NewONNXPredictor(modelPath, libraryPath string) (*ONNXPredictor, error) {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	inputName, outputName := "input", "output"
	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	return &ONNXPredictor{
		session:    session,
		inputName:  inputName,
		outputName: outputName,
	}, nil
}

// Predict implements Predictor with a single forward pass.
func (p *ONNXPredictor) Predict(_ context.Context, input []float32) ([]float32, error) {
	shape := ort.NewShape(1, inputSize, inputSize, 3)
	inputTensor, err := ort.NewTensor(shape, input)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	scores := make([]float32, len(outputTensor.GetData()))
	copy(scores, outputTensor.GetData())
	return scores, nil
}

// Close releases the model session.
func (p *ONNXPredictor) Close() error {
	return p.session.Destroy()
}

// LoadLabels reads the class label table, one label per line, where line i
// names class index i.
func LoadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels %s: %w", path, err)
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}
