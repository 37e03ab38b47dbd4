package frustum

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultCombinedValues is the sample combined transform, authored
// row-major for the row-vector convention.
var DefaultCombinedValues = []float64{
	1.33797, 0.955281, -0.546106, -0.546052,
	-0.937522, 2.05715, -0.0830864, -0.0830781,
	0.782967, 0.830887, 0.83375, 0.833667,
	0, 0, 4.37257, 4.47214,
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() *Config {
	values := make([]float64, len(DefaultCombinedValues))
	copy(values, DefaultCombinedValues)
	return &Config{
		Combined: CombinedConfig{
			Values: values,
			Layout: RowVector.String(),
			Order:  InverseFirst.String(),
		},
		Projection: ProjectionConfig{
			Convention: Direct3D{}.Name(),
			Aspect:     800.0 / 600.0,
			Far:        10000,
		},
		Coarse: DefaultGridConfig(),
		Refine: DefaultRefineConfig(),
		MQTT: MQTTConfig{
			PublishPrefix: "frustumfit",
			ClientID:      "frustumfit",
			QoS:           1,
			Retain:        true,
		},
	}
}

// LoadConfig loads a YAML file on top of DefaultConfig and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks the structural settings. It does not check that a near
// candidate lies below the far plane; CoarseSearch reports that.
func (c *Config) Validate() error {
	if len(c.Combined.Values) != 16 {
		return fmt.Errorf("%w: combined.values needs 16 numbers, got %d", ErrInvalidConfig, len(c.Combined.Values))
	}
	for i, v := range c.Combined.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: combined.values[%d] is not finite", ErrInvalidConfig, i)
		}
	}
	if _, err := ParseLayout(c.Combined.Layout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := ParseOrder(c.Combined.Order); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !strings.EqualFold(strings.TrimSpace(c.Projection.Convention), ConventionAuto) {
		if _, err := ConventionByName(c.Projection.Convention); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if !(c.Projection.Aspect > 0) || math.IsInf(c.Projection.Aspect, 0) {
		return fmt.Errorf("%w: projection.aspect must be positive and finite, got %v", ErrInvalidConfig, c.Projection.Aspect)
	}
	if !(c.Projection.Far > 0) || math.IsInf(c.Projection.Far, 0) {
		return fmt.Errorf("%w: projection.far must be positive and finite, got %v", ErrInvalidConfig, c.Projection.Far)
	}
	if err := c.Coarse.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Refine.MaxIterations <= 0 {
		return fmt.Errorf("%w: refine.maxIterations must be positive", ErrInvalidConfig)
	}
	if c.Refine.XTolerance < 0 || c.Refine.FTolerance < 0 {
		return fmt.Errorf("%w: refine tolerances must not be negative", ErrInvalidConfig)
	}
	if !isFiniteValue(c.Refine.MinFOV) || !isFiniteValue(c.Refine.MaxFOV) || c.Refine.MaxFOV <= c.Refine.MinFOV {
		return fmt.Errorf("%w: refine fov bounds (%v, %v) are empty", ErrInvalidConfig, c.Refine.MinFOV, c.Refine.MaxFOV)
	}
	// Grid points are scored through the same domain as the refiner.
	if c.Coarse.FOVMin <= c.Refine.MinFOV || c.Coarse.FOVMax >= c.Refine.MaxFOV {
		return fmt.Errorf("%w: coarse fov range [%v, %v] must lie inside refine bounds (%v, %v)",
			ErrInvalidConfig, c.Coarse.FOVMin, c.Coarse.FOVMax, c.Refine.MinFOV, c.Refine.MaxFOV)
	}
	for i, near := range c.Coarse.NearValues {
		if near <= 0 {
			return fmt.Errorf("%w: coarse.nearValues[%d] must be positive, got %v", ErrInvalidConfig, i, near)
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2, got %d", ErrInvalidConfig, c.MQTT.QoS)
	}
	return nil
}

// ApplyEnv overrides MQTT settings from MQTT_BROKER, MQTT_CLIENT_ID,
// MQTT_USERNAME, MQTT_PASSWORD and MQTT_PUBLISH_PREFIX when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		c.MQTT.ClientID = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		c.MQTT.PublishPrefix = v
	}
}
