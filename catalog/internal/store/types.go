package store

// Supported script languages. The schema enforces the same set with a
// CHECK constraint.
const (
	LanguagePowerShell = "PowerShell"
	LanguageBash       = "Bash"
)

// ValidLanguage reports whether s is a supported script language.
func ValidLanguage(s string) bool {
	return s == LanguagePowerShell || s == LanguageBash
}

// Script is a catalog entry. RequiredModules, Dependencies and License are
// nullable and surface as null in JSON when absent.
type Script struct {
	ID              int64   `json:"id"`
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
	CreatedAt       int64   `json:"createdAt"`
	UpdatedAt       int64   `json:"updatedAt"`
}

// ScriptVersion is one entry in a script's change history.
type ScriptVersion struct {
	ID        int64  `json:"id"`
	ScriptID  int64  `json:"scriptId"`
	Version   string `json:"version"`
	Changes   string `json:"changes"`
	CreatedAt int64  `json:"createdAt"`
}

// ScriptWithDetails is a script together with its tags, highlights and
// version history. The slices are always non-nil so they serialize as []
// rather than null.
type ScriptWithDetails struct {
	Script
	Tags       []string         `json:"tags"`
	Highlights []string         `json:"highlights"`
	Versions   []*ScriptVersion `json:"versions"`
}

// ScriptPatch is a partial update for a script. Nil fields are left
// untouched. The key is immutable and therefore absent here.
type ScriptPatch struct {
	Language        *string
	Title           *string
	Summary         *string
	Code            *string
	Readme          *string
	Author          *string
	Version         *string
	CompatibleOS    *string
	RequiredModules *string
	Dependencies    *string
	License         *string
}

// User is an operator account. The password hash never serializes.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	CreatedAt    int64  `json:"createdAt"`
}
