// Package model runs the board vision network: two convolutional layers
// followed by two fully connected layers, classifying each intersection tile
// as empty, black, white, or obscured. Weights come from model.safetensors.
// The adjacent model.txt names the input and output tensors; those names are
// read and reported but not checked against the tensors in the weight file.
package model

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/kendfrey/saigo/internal/domain/board"
	"github.com/kendfrey/saigo/internal/domain/vision"
	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

const (
	weightsFile    = "model.safetensors"
	vocabularyFile = "model.txt"
)

// Classes is the size of the output probability vector.
const Classes = 4

type layer struct {
	weight Tensor
	bias   Tensor
}

// Model is the loaded vision network. Inference is a pure function of the
// tile batch; the scheduler guarantees at most one call in flight.
type Model struct {
	conv1 layer
	conv2 layer
	fc1   layer
	fc2   layer

	// InputName and OutputName come from model.txt, first and second line.
	InputName  string
	OutputName string

	inChannels int
}

// Load reads the model weights and vocabulary from dir. A missing or
// malformed file is fatal at startup.
func Load(dir string) (*Model, error) {
	inputName, outputName, err := readVocabulary(filepath.Join(dir, vocabularyFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", saigoerr.ErrModelLoadFailed, err)
	}

	tensors, err := LoadSafetensors(filepath.Join(dir, weightsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", saigoerr.ErrModelLoadFailed, err)
	}

	m := &Model{InputName: inputName, OutputName: outputName}
	for _, entry := range []struct {
		name string
		dst  *layer
		dims int
	}{
		{"conv1", &m.conv1, 4},
		{"conv2", &m.conv2, 4},
		{"fc1", &m.fc1, 2},
		{"fc2", &m.fc2, 2},
	} {
		weight, ok := tensors[entry.name+".weight"]
		if !ok {
			return nil, fmt.Errorf("%w: missing tensor %s.weight", saigoerr.ErrModelLoadFailed, entry.name)
		}
		if len(weight.Shape) != entry.dims {
			return nil, fmt.Errorf("%w: tensor %s.weight has shape %v", saigoerr.ErrModelLoadFailed, entry.name, weight.Shape)
		}
		bias, ok := tensors[entry.name+".bias"]
		if !ok {
			return nil, fmt.Errorf("%w: missing tensor %s.bias", saigoerr.ErrModelLoadFailed, entry.name)
		}
		entry.dst.weight = weight
		entry.dst.bias = bias
	}

	if m.fc2.weight.Shape[0] != Classes {
		return nil, fmt.Errorf("%w: output layer produces %d classes, want %d",
			saigoerr.ErrModelLoadFailed, m.fc2.weight.Shape[0], Classes)
	}
	m.inChannels = m.conv1.weight.Shape[1]

	return m, nil
}

func readVocabulary(path string) (input, output string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	if len(lines) < 2 {
		return "", "", fmt.Errorf("vocabulary %s must name the input and output tensors", path)
	}
	return lines[0], lines[1], nil
}

// Predict classifies every tile in the batch, returning one probability
// vector per intersection in row-major order.
func (m *Model) Predict(batch vision.TileBatch) ([]vision.CellPrediction, error) {
	size := batch.TileSize
	if size != board.StoneSize {
		return nil, fmt.Errorf("%w: tile size %d, want %d", saigoerr.ErrInferenceFailed, size, board.StoneSize)
	}
	tileLen := m.inChannels * size * size
	if len(batch.Data) != batch.Tiles*tileLen {
		return nil, fmt.Errorf("%w: batch carries %d values for %d tiles of %d",
			saigoerr.ErrInferenceFailed, len(batch.Data), batch.Tiles, tileLen)
	}

	out := make([]vision.CellPrediction, batch.Tiles)
	for i := 0; i < batch.Tiles; i++ {
		tile := batch.Data[i*tileLen : (i+1)*tileLen]
		logits, err := m.forward(tile, size)
		if err != nil {
			return nil, err
		}
		p := softmax(logits)
		out[i] = vision.CellPrediction{Empty: p[0], Black: p[1], White: p[2], Obscured: p[3]}
	}
	return out, nil
}

func (m *Model) forward(tile []float32, size int) ([Classes]float32, error) {
	var zero [Classes]float32

	h1, s1 := conv2d(tile, m.inChannels, size, m.conv1)
	relu(h1)
	h2, _ := conv2d(h1, m.conv1.weight.Shape[0], s1, m.conv2)
	relu(h2)

	if len(h2) != m.fc1.weight.Shape[1] {
		return zero, fmt.Errorf("%w: flattened features %d do not match fc1 input %d",
			saigoerr.ErrInferenceFailed, len(h2), m.fc1.weight.Shape[1])
	}

	h3 := linear(h2, m.fc1)
	relu(h3)
	h4 := linear(h3, m.fc2)

	var logits [Classes]float32
	copy(logits[:], h4)
	return logits, nil
}

// conv2d applies a stride-1, unpadded convolution. Input and output are
// channels-first square planes.
func conv2d(in []float32, channels, size int, l layer) ([]float32, int) {
	outChannels := l.weight.Shape[0]
	k := l.weight.Shape[2]
	outSize := size - k + 1
	out := make([]float32, outChannels*outSize*outSize)

	for oc := 0; oc < outChannels; oc++ {
		for oy := 0; oy < outSize; oy++ {
			for ox := 0; ox < outSize; ox++ {
				sum := l.bias.Data[oc]
				for ic := 0; ic < channels; ic++ {
					for ky := 0; ky < k; ky++ {
						for kx := 0; kx < k; kx++ {
							pixel := in[ic*size*size+(oy+ky)*size+(ox+kx)]
							weight := l.weight.Data[((oc*channels+ic)*k+ky)*k+kx]
							sum += pixel * weight
						}
					}
				}
				out[oc*outSize*outSize+oy*outSize+ox] = sum
			}
		}
	}
	return out, outSize
}

func linear(in []float32, l layer) []float32 {
	outLen := l.weight.Shape[0]
	inLen := l.weight.Shape[1]
	out := make([]float32, outLen)
	for o := 0; o < outLen; o++ {
		sum := l.bias.Data[o]
		row := l.weight.Data[o*inLen : (o+1)*inLen]
		for i, v := range in {
			sum += v * row[i]
		}
		out[o] = sum
	}
	return out
}

func relu(v []float32) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

func softmax(logits [Classes]float32) [Classes]float32 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float32
	var out [Classes]float32
	for i, v := range logits {
		out[i] = float32(math.Exp(float64(v - max)))
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
