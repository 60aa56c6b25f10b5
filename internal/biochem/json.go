package biochem

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agenthands/modelstd/internal/core/model"
)

// Document is the on-disk layout of a reference database file.
type Document struct {
	Compounds []model.CanonicalCompound `json:"compounds"`
	Reactions []model.CanonicalReaction `json:"reactions"`
}

func Decode(r io.Reader) (*Memory, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode biochemistry: %w", err)
	}
	return NewMemory(doc.Compounds, doc.Reactions)
}

func LoadJSON(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open biochemistry %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
