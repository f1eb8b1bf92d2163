package cache

// Keyer derives cache keys for pipeline results.
type Keyer interface {
	// SnapshotKey identifies the layout snapshot produced by replaying a
	// script against a scene.
	SnapshotKey(sceneHash string, opts SnapshotKeyOpts) string

	// ArtifactKey identifies a rendered snapshot.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// SnapshotKeyOpts are the inputs besides the scene that change a snapshot.
type SnapshotKeyOpts struct {
	ScriptHash string  `json:"script_hash,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Offset     float64 `json:"offset,omitempty"`
	Viewport   bool    `json:"viewport,omitempty"`
	Verify     bool    `json:"verify,omitempty"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Scale    float64 `json:"scale,omitempty"`
	Viewport bool    `json:"viewport,omitempty"`
	Sections bool    `json:"sections,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey implements Keyer.
func (DefaultKeyer) SnapshotKey(sceneHash string, opts SnapshotKeyOpts) string {
	return hashKey("snapshot", sceneHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", snapshotHash, opts)
}
