// Package vision classifies images fetched from user-supplied URLs with a
// pretrained ImageNet model running in-process.
package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sort"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/doyensec/safeurl"
)

const (
	// inputSize matches the InceptionV3 input resolution.
	inputSize = 299
	// topK predictions are returned per request.
	topK = 3
	// maxImageBytes caps how much of a remote image is read.
	maxImageBytes = 20 << 20
)

var (
	// ErrImageFetch reports an unreachable URL or undecodable image bytes.
	ErrImageFetch = errors.New("image fetch failed")
	// ErrModel reports a failed inference pass.
	ErrModel = errors.New("model inference failed")
)

// Prediction is one classified label with its confidence.
type Prediction struct {
	Type   string  `json:"type"`
	Chance float32 `json:"chance"`
}

// Predictor runs one forward pass over a normalized NHWC input tensor and
// returns the per-class scores.
type Predictor interface {
	Predict(ctx context.Context, input []float32) ([]float32, error)
}

// Classifier fetches, preprocesses and classifies remote images. The model
// and label table are loaded once at startup and shared read-only across
// requests.
type Classifier struct {
	http      *http.Client
	predictor Predictor
	labels    []string
}

// NewClassifier builds a classifier using the given HTTP client. Production
// wiring should pass NewSafeClient so user-supplied URLs cannot reach
// internal addresses.
func NewClassifier(client *http.Client, predictor Predictor, labels []string) *Classifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Classifier{http: client, predictor: predictor, labels: labels}
}

// NewSafeClient returns an HTTP client that refuses private, loopback and
// link-local destinations. DNS-rebinding is covered by the dialer-level check
// inside safeurl.
func NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(cfg).Client
}

// Classify fetches the image, resizes it to the model input resolution,
// normalizes it and returns the top-3 predictions sorted by descending
// confidence.
func (c *Classifier) Classify(ctx context.Context, imageURL string) ([]Prediction, error) {
	img, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	input := preprocess(img)
	scores, err := c.predictor.Predict(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModel, err)
	}
	return c.decodePredictions(scores), nil
}

func (c *Classifier) fetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: remote returned %d", ErrImageFetch, resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrImageFetch, err)
	}
	return img, nil
}

// preprocess resizes to the model resolution and scales channel values to
// [-1, 1], the Inception input distribution.
func preprocess(img image.Image) []float32 {
	resized := imaging.Resize(img, inputSize, inputSize, imaging.Lanczos)

	input := make([]float32, inputSize*inputSize*3)
	i := 0
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			px := resized.NRGBAAt(x, y)
			input[i] = float32(px.R)/127.5 - 1
			input[i+1] = float32(px.G)/127.5 - 1
			input[i+2] = float32(px.B)/127.5 - 1
			i += 3
		}
	}
	return input
}

func (c *Classifier) decodePredictions(scores []float32) []Prediction {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	k := topK
	if k > len(indices) {
		k = len(indices)
	}
	predictions := make([]Prediction, 0, k)
	for _, idx := range indices[:k] {
		predictions = append(predictions, Prediction{
			Type:   c.labelFor(idx),
			Chance: scores[idx],
		})
	}
	return predictions
}

func (c *Classifier) labelFor(idx int) string {
	if idx >= 0 && idx < len(c.labels) {
		return c.labels[idx]
	}
	return fmt.Sprintf("class_%d", idx)
}
