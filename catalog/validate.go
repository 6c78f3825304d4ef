package catalog

import (
	"fmt"

	"github.com/scriptshelf/scriptshelf/catalog/internal/store"
)

// scriptPayload is the script object of a create request. The optional
// metadata fields stay nullable all the way to the database.
type scriptPayload struct {
	Key             string  `json:"key"`
	Language        string  `json:"language"`
	Title           string  `json:"title"`
	Summary         string  `json:"summary"`
	Code            string  `json:"code"`
	Readme          string  `json:"readme"`
	Author          string  `json:"author"`
	Version         string  `json:"version"`
	CompatibleOS    string  `json:"compatibleOS"`
	RequiredModules *string `json:"requiredModules"`
	Dependencies    *string `json:"dependencies"`
	License         *string `json:"license"`
}

type versionPayload struct {
	Version string `json:"version"`
	Changes string `json:"changes"`
}

type createScriptRequest struct {
	Script     *scriptPayload  `json:"script"`
	Tags       []string        `json:"tags"`
	Highlights []string        `json:"highlights"`
	Version    *versionPayload `json:"version"`
}

// scriptPatchPayload is the partial script object of an update request.
// Key appears only so that attempts to change it can be rejected.
type scriptPatchPayload struct {
	Key             *string `json:"key"`
	Language        *string `json:"language"`
	Title           *string `json:"title"`
	Summary         *string `json:"summary"`
	Code            *string `json:"code"`
	Readme          *string `json:"readme"`
	Author          *string `json:"author"`
	Version         *string `json:"version"`
	CompatibleOS    *string `json:"compatibleOS"`
	RequiredModules *string `json:"requiredModules"`
	Dependencies    *string `json:"dependencies"`
	License         *string `json:"license"`
}

type updateScriptRequest struct {
	Script     *scriptPatchPayload `json:"script"`
	Tags       *[]string           `json:"tags"`
	Highlights *[]string           `json:"highlights"`
}

func (r *createScriptRequest) validate() error {
	if r.Script == nil {
		return fmt.Errorf("script is required")
	}
	required := []struct{ name, value string }{
		{"script.key", r.Script.Key},
		{"script.language", r.Script.Language},
		{"script.title", r.Script.Title},
		{"script.summary", r.Script.Summary},
		{"script.code", r.Script.Code},
		{"script.readme", r.Script.Readme},
		{"script.author", r.Script.Author},
		{"script.version", r.Script.Version},
		{"script.compatibleOS", r.Script.CompatibleOS},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	if !store.ValidLanguage(r.Script.Language) {
		return fmt.Errorf("script.language must be %s or %s", store.LanguagePowerShell, store.LanguageBash)
	}
	if r.Tags == nil {
		return fmt.Errorf("tags is required")
	}
	if r.Highlights == nil {
		return fmt.Errorf("highlights is required")
	}
	if r.Version == nil {
		return fmt.Errorf("version is required")
	}
	return r.Version.validate()
}

func (v *versionPayload) validate() error {
	if v.Version == "" {
		return fmt.Errorf("version.version is required")
	}
	if v.Changes == "" {
		return fmt.Errorf("version.changes is required")
	}
	return nil
}

func (r *updateScriptRequest) validate() error {
	if r.Script == nil {
		return nil
	}
	if r.Script.Key != nil {
		return fmt.Errorf("script.key is immutable")
	}
	if r.Script.Language != nil && !store.ValidLanguage(*r.Script.Language) {
		return fmt.Errorf("script.language must be %s or %s", store.LanguagePowerShell, store.LanguageBash)
	}
	return nil
}

func (p *scriptPayload) toScript() *store.Script {
	return &store.Script{
		Key:             p.Key,
		Language:        p.Language,
		Title:           p.Title,
		Summary:         p.Summary,
		Code:            p.Code,
		Readme:          p.Readme,
		Author:          p.Author,
		Version:         p.Version,
		CompatibleOS:    p.CompatibleOS,
		RequiredModules: p.RequiredModules,
		Dependencies:    p.Dependencies,
		License:         p.License,
	}
}

func (p *scriptPatchPayload) toPatch() *store.ScriptPatch {
	if p == nil {
		return nil
	}
	return &store.ScriptPatch{
		Language:        p.Language,
		Title:           p.Title,
		Summary:         p.Summary,
		Code:            p.Code,
		Readme:          p.Readme,
		Author:          p.Author,
		Version:         p.Version,
		CompatibleOS:    p.CompatibleOS,
		RequiredModules: p.RequiredModules,
		Dependencies:    p.Dependencies,
		License:         p.License,
	}
}
