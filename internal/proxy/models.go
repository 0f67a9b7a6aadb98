package proxy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"gopkg.in/yaml.v3"
)

// Model catalogs served on /v1/models.
const (
	CatalogAnthropic = "anthropic"
	CatalogBedrock   = "bedrock"
)

//go:embed models.yaml
var modelsYAML []byte

// model is one entry of the model listing. Object and OwnedBy keep OpenAI clients that
// validate the listing happy; Name is the human readable label.
type model struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Object  string `yaml:"-" json:"object"`
	OwnedBy string `yaml:"-" json:"owned_by"`
}

type modelList struct {
	Object string  `json:"object"`
	Data   []model `json:"data"`
}

// loadCatalog returns the models of the named catalog.
func loadCatalog(name string) ([]model, error) {
	var catalogs map[string][]model
	if err := yaml.Unmarshal(modelsYAML, &catalogs); err != nil {
		return nil, fmt.Errorf("parse model catalogs: %w", err)
	}
	models, ok := catalogs[name]
	if !ok {
		names := make([]string, 0, len(catalogs))
		for n := range catalogs {
			names = append(names, n)
		}
		slices.Sort(names)
		return nil, fmt.Errorf("unknown model catalog %q (expected one of %v)", name, names)
	}
	for i := range models {
		models[i].Object = "model"
		models[i].OwnedBy = "anthropic"
	}
	return models, nil
}

// modelsHandler serves a static model listing. Neither upstream offers a listing that
// matches the models this proxy accepts, so the catalog is embedded.
func modelsHandler(catalog string) (http.HandlerFunc, error) {
	models, err := loadCatalog(catalog)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(modelList{Object: "list", Data: models})
	if err != nil {
		return nil, fmt.Errorf("encode model list: %w", err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(body); err != nil {
			slog.ErrorContext(r.Context(), "failed to write response", "error", err)
		}
	}, nil
}
