package frustum

import "fmt"

// SentinelError is the score given to candidates that could not be evaluated.
// It is large and finite so the optimizer can route around such regions.
const SentinelError = 1e9

// Params is the (field of view, near plane) pair being searched.
// FOV is the vertical field of view in degrees.
type Params struct {
	FOV  float64 `json:"fov" yaml:"fov"`
	Near float64 `json:"near" yaml:"near"`
}

func (p Params) String() string {
	return fmt.Sprintf("fov=%.6f near=%.6f", p.FOV, p.Near)
}

// Outcome tells whether a candidate was actually scored.
type Outcome int

const (
	Evaluated Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Evaluated:
		return "evaluated"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// RejectReason explains why a candidate was not scored.
type RejectReason string

const (
	RejectNone      RejectReason = ""
	RejectSingular  RejectReason = "singular projection"
	RejectFOV       RejectReason = "field of view out of range"
	RejectNear      RejectReason = "near plane out of range"
	RejectNonFinite RejectReason = "non-finite error"
)

// Evaluation is the result of scoring one candidate. A rejected evaluation
// carries the reason instead of an error value.
type Evaluation struct {
	Outcome Outcome      `json:"outcome"`
	Error   float64      `json:"error"`
	Reason  RejectReason `json:"reason,omitempty"`
}

// Accept wraps a computed edge error.
func Accept(err float64) Evaluation {
	return Evaluation{Outcome: Evaluated, Error: err}
}

// Reject marks a candidate as unscorable.
func Reject(reason RejectReason) Evaluation {
	return Evaluation{Outcome: Rejected, Error: SentinelError, Reason: reason}
}

// IsRejected reports whether the candidate was rejected.
func (e Evaluation) IsRejected() bool {
	return e.Outcome == Rejected
}

// Score returns the value minimized by the search: the edge error for
// evaluated candidates, SentinelError for rejected ones.
func (e Evaluation) Score() float64 {
	if e.Outcome == Rejected {
		return SentinelError
	}
	return e.Error
}

func (e Evaluation) String() string {
	if e.Outcome == Rejected {
		return fmt.Sprintf("rejected (%s)", e.Reason)
	}
	return fmt.Sprintf("err=%.12f", e.Error)
}

// GridSample is one scored point of the coarse grid. Index is the position
// in scan order (fov ascending, then near in configured order).
type GridSample struct {
	Index      int        `json:"index"`
	Params     Params     `json:"params"`
	Evaluation Evaluation `json:"evaluation"`
}

// CoarseResult is the outcome of the exhaustive grid scan.
type CoarseResult struct {
	Best      Params       `json:"best"`
	Error     float64      `json:"error"`
	Evaluated int          `json:"evaluated"` // candidates scored (including rejected)
	Rejected  int          `json:"rejected"`  // candidates scored as rejected
	Skipped   int          `json:"skipped"`   // pairs skipped because near >= far
	Samples   []GridSample `json:"-"`
}

// RefineResult is the outcome of the local simplex refinement.
type RefineResult struct {
	Params      Params  `json:"params"`
	Error       float64 `json:"error"`
	Converged   bool    `json:"converged"` // tolerances met before any limit
	Status      string  `json:"status"`
	Iterations  int     `json:"iterations"`
	Evaluations int     `json:"evaluations"`
}

// Solution is the full result for one projection convention.
type Solution struct {
	Convention string       `json:"convention"`
	Aspect     float64      `json:"aspect"`
	Far        float64      `json:"far"`
	Coarse     CoarseResult `json:"coarse"`
	Refined    RefineResult `json:"refined"`
	Timestamp  int64        `json:"timestamp"`
}

// CombinedConfig describes the observed world-view-projection transform.
type CombinedConfig struct {
	Values []float64 `yaml:"values" json:"values"` // 16 values in authored row-major order
	Layout string    `yaml:"layout" json:"layout"` // "row-vector" or "column-vector"
	Order  string    `yaml:"order" json:"order"`   // "inverse-first" or "inverse-last"
}

// ProjectionConfig holds the fixed projection inputs.
type ProjectionConfig struct {
	Convention string  `yaml:"convention" json:"convention"` // "direct3d", "opengl" or "auto"
	Aspect     float64 `yaml:"aspect" json:"aspect"`
	Far        float64 `yaml:"far" json:"far"`
}

// GridConfig drives the coarse search.
type GridConfig struct {
	FOVMin     float64   `yaml:"fovMin" json:"fovMin"`
	FOVMax     float64   `yaml:"fovMax" json:"fovMax"`
	FOVStep    float64   `yaml:"fovStep" json:"fovStep"`
	NearValues []float64 `yaml:"nearValues" json:"nearValues"`
	Workers    int       `yaml:"workers,omitempty" json:"workers,omitempty"` // 0 = runtime.NumCPU()
}

// RefineConfig drives the Nelder-Mead refinement.
type RefineConfig struct {
	MaxIterations   int     `yaml:"maxIterations" json:"maxIterations"`
	XTolerance      float64 `yaml:"xTolerance" json:"xTolerance"`
	FTolerance      float64 `yaml:"fTolerance" json:"fTolerance"`
	StallIterations int     `yaml:"stallIterations" json:"stallIterations"` // consecutive iterations within tolerance
	MinFOV          float64 `yaml:"minFov" json:"minFov"`
	MaxFOV          float64 `yaml:"maxFov" json:"maxFov"`
}

// MQTTConfig holds MQTT connection settings for publishing solutions.
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
	QoS           byte   `yaml:"qos" json:"qos"`
	Retain        bool   `yaml:"retain" json:"retain"`
}

// Config represents the full configuration file
type Config struct {
	Combined   CombinedConfig   `yaml:"combined" json:"combined"`
	Projection ProjectionConfig `yaml:"projection" json:"projection"`
	Coarse     GridConfig       `yaml:"coarse" json:"coarse"`
	Refine     RefineConfig     `yaml:"refine" json:"refine"`
	MQTT       MQTTConfig       `yaml:"mqtt" json:"mqtt"`
}

// Bounds returns the domain limits used by the refiner cost.
func (rc RefineConfig) Bounds() Bounds {
	return Bounds{MinFOV: rc.MinFOV, MaxFOV: rc.MaxFOV}
}
