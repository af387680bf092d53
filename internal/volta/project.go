package volta

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ProjectPin describes the volta section of a local package.json. A pin in
// the working directory can shadow globally-managed tools, which is worth
// warning about before global updates.
type ProjectPin struct {
	Node string `json:"node"`
	NPM  string `json:"npm"`
	Yarn string `json:"yarn"`
}

type packageManifest struct {
	Volta *ProjectPin `json:"volta"`
}

// DetectProjectPin reports whether package.json in dir carries a volta
// section. A missing or unparsable manifest is not an error; it simply means
// no pin.
func DetectProjectPin(dir string) (*ProjectPin, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, false
	}

	var manifest packageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, false
	}
	if manifest.Volta == nil {
		return nil, false
	}

	return manifest.Volta, true
}
