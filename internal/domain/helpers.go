package domain

// HelperImage describes a bundled binary the planner can preload on the target.
type HelperImage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	LoadAddress uint32 `json:"loadAddress"`
	Raw         bool   `json:"raw"`
	Description string `json:"description"`
	Present     bool   `json:"present"`
	LocalPath   string `json:"localPath,omitempty"`
}
