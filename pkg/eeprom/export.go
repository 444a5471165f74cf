package eeprom

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/openshift/onl-platform-daemon/pkg/onie"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// DefaultJSONPath is where ONLP reads the cached system EEPROM back from
	DefaultJSONPath = "/lib/platform-config/current/onl/etc/onie/eeprom.json"
	// DefaultConfigMapName holds one EEPROM document per node
	DefaultConfigMapName = "onl-platform-eeprom"
)

// Exporter publishes a decoded system EEPROM
type Exporter interface {
	Export(ctx context.Context, info *onie.Info) error
}

// FileExporter writes the EEPROM as JSON to Path, replacing any previous file atomically
type FileExporter struct {
	Path string
}

// Export implements Exporter
func (f FileExporter) Export(_ context.Context, info *onie.Info) error {
	data, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	dir := filepath.Dir(f.Path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".eeprom-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to install %s: %w", f.Path, err)
	}
	glog.Infof("system eeprom cached in %s", f.Path)
	return nil
}

// ConfigMapExporter stores the EEPROM JSON under Key in a ConfigMap, creating it when missing
type ConfigMapExporter struct {
	Client    kubernetes.Interface
	Namespace string
	Name      string
	Key       string
}

// Export implements Exporter
func (c ConfigMapExporter) Export(ctx context.Context, info *onie.Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	cms := c.Client.CoreV1().ConfigMaps(c.Namespace)
	cm, err := cms.Get(ctx, c.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      c.Name,
				Namespace: c.Namespace,
			},
			Data: map[string]string{c.Key: string(data)},
		}
		if _, err = cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create configmap %s/%s: %w", c.Namespace, c.Name, err)
		}
		glog.Infof("system eeprom published to new configmap %s/%s[%s]", c.Namespace, c.Name, c.Key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get configmap %s/%s: %w", c.Namespace, c.Name, err)
	}
	if len(cm.Data) == 0 {
		cm.Data = map[string]string{}
	}
	cm.Data[c.Key] = string(data)
	if _, err = cms.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update configmap %s/%s: %w", c.Namespace, c.Name, err)
	}
	glog.Infof("system eeprom published to configmap %s/%s[%s]", c.Namespace, c.Name, c.Key)
	return nil
}

// MultiExporter runs every exporter in order and stops at the first failure
type MultiExporter []Exporter

// Export implements Exporter
func (m MultiExporter) Export(ctx context.Context, info *onie.Info) error {
	for _, e := range m {
		if err := e.Export(ctx, info); err != nil {
			return err
		}
	}
	return nil
}
