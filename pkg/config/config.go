package config

import (
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/openshift/onl-platform-daemon/pkg/eeprom"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultUpdateInterval between telemetry refreshes, seconds
	DefaultUpdateInterval = 30
	// DefaultMetricsAddress serves /metrics
	DefaultMetricsAddress = "0.0.0.0:9091"
	// DefaultReadyAddress serves /ready
	DefaultReadyAddress = "0.0.0.0:8081"
	// DefaultNamespace of the EEPROM configmap when running in a cluster
	DefaultNamespace = "onl-platform"
)

// Config of the platform daemon
type Config struct {
	// Root prefixes every host path, used when running in a container with the host mounted
	Root string `json:"root,omitempty"`
	// Platform forces a platform id instead of detecting it
	Platform string `json:"platform,omitempty"`
	// FailOnExitStatus aborts bring-up when the hardware management command exits non-zero
	FailOnExitStatus bool `json:"failOnExitStatus,omitempty"`
	// HwManagementTimeout bounds the hardware management command, 0 for none
	HwManagementTimeout Duration `json:"hwManagementTimeout,omitempty"`
	UpdateInterval      int      `json:"updateInterval,omitempty"`
	MetricsAddress      string   `json:"metricsAddress,omitempty"`
	ReadyAddress        string   `json:"readyAddress,omitempty"`
	Eeprom              Eeprom   `json:"eeprom,omitempty"`
}

// Eeprom export settings
type Eeprom struct {
	// Source overrides the raw system EEPROM path of the vendor profile
	Source    string `json:"source,omitempty"`
	JSONPath  string `json:"jsonPath,omitempty"`
	ConfigMap string `json:"configMap,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	// Publish enables the configmap export; it also needs NODE_NAME and a kube config
	Publish bool `json:"publish,omitempty"`
}

// Duration is a time.Duration that reads "30s" style strings
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %v", s, err)
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Root:           "/",
		UpdateInterval: DefaultUpdateInterval,
		MetricsAddress: DefaultMetricsAddress,
		ReadyAddress:   DefaultReadyAddress,
		Eeprom: Eeprom{
			JSONPath:  eeprom.DefaultJSONPath,
			ConfigMap: eeprom.DefaultConfigMapName,
			Namespace: DefaultNamespace,
		},
	}
}

// Load overlays the YAML file at path on the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	glog.Infof("loaded configuration from %s", path)
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with
func (c *Config) Validate() error {
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("updateInterval must be positive, got %d", c.UpdateInterval)
	}
	if c.HwManagementTimeout.Duration < 0 {
		return fmt.Errorf("hwManagementTimeout must not be negative")
	}
	if c.Eeprom.JSONPath == "" {
		return fmt.Errorf("eeprom.jsonPath must be set")
	}
	if c.Eeprom.Publish && (c.Eeprom.ConfigMap == "" || c.Eeprom.Namespace == "") {
		return fmt.Errorf("eeprom.configMap and eeprom.namespace are required to publish")
	}
	return nil
}

// GetKubeConfig returns the in-cluster config, or the one KUBECONFIG points at
func GetKubeConfig() (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		return nil, fmt.Errorf("not running in a cluster and KUBECONFIG is not set")
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}
