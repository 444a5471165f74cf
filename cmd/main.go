package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang/glog"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/yaml"

	mapping "github.com/openshift/onl-platform-daemon/addons"
	"github.com/openshift/onl-platform-daemon/pkg/bsp"
	"github.com/openshift/onl-platform-daemon/pkg/command"
	"github.com/openshift/onl-platform-daemon/pkg/config"
	"github.com/openshift/onl-platform-daemon/pkg/daemon"
	"github.com/openshift/onl-platform-daemon/pkg/detect"
	"github.com/openshift/onl-platform-daemon/pkg/eeprom"
	"github.com/openshift/onl-platform-daemon/pkg/metrics"
	"github.com/openshift/onl-platform-daemon/pkg/platform"
)

// Git commit of current build set at build time
var GitCommit = "Undefined"

type cliParams struct {
	configPath          string
	platform            string
	root                string
	oneshot             bool
	updateInterval      int
	metricsAddress      string
	readyAddress        string
	failOnExitStatus    bool
	hwManagementTimeout time.Duration
	listPlatforms       bool
	dumpInventory       bool
}

// Parse Command line flags
func (cp *cliParams) flagInit() {
	flag.StringVar(&cp.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&cp.platform, "platform", "", "platform id, detected from the host when empty")
	flag.StringVar(&cp.root, "root", "/", "prefix of every host path")
	flag.BoolVar(&cp.oneshot, "oneshot", false, "exit after the base configuration")
	flag.IntVar(&cp.updateInterval, "update-interval", config.DefaultUpdateInterval,
		"Interval to refresh platform telemetry")
	flag.StringVar(&cp.metricsAddress, "metrics-address", config.DefaultMetricsAddress, "metrics bind address")
	flag.StringVar(&cp.readyAddress, "ready-address", config.DefaultReadyAddress, "readiness endpoint bind address")
	flag.BoolVar(&cp.failOnExitStatus, "fail-on-exit-status", false,
		"fail the base configuration when hardware management exits non-zero")
	flag.DurationVar(&cp.hwManagementTimeout, "hw-management-timeout", 0,
		"timeout of the hardware management start command, 0 for none")
	flag.BoolVar(&cp.listPlatforms, "list-platforms", false, "print the registered platforms and exit")
	flag.BoolVar(&cp.dumpInventory, "dump-inventory", false, "print the platform inventory as YAML and exit")
	flag.Parse()
	cp.debugPrint()
}

func (cp *cliParams) debugPrint() {
	glog.Infof("config file: %q", cp.configPath)
	glog.Infof("platform: %q", cp.platform)
	glog.Infof("root set to: %s", cp.root)
	glog.Infof("oneshot: %v", cp.oneshot)
	glog.Infof("resync period set to: %d [s]", cp.updateInterval)
	glog.Infof("fail on exit status: %v", cp.failOnExitStatus)
	glog.Infof("hw management timeout: %v", cp.hwManagementTimeout)
}

// applyTo overrides the configuration with the flags given on the command line
func (cp *cliParams) applyTo(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "platform":
			cfg.Platform = cp.platform
		case "root":
			cfg.Root = cp.root
		case "update-interval":
			cfg.UpdateInterval = cp.updateInterval
		case "metrics-address":
			cfg.MetricsAddress = cp.metricsAddress
		case "ready-address":
			cfg.ReadyAddress = cp.readyAddress
		case "fail-on-exit-status":
			cfg.FailOnExitStatus = cp.failOnExitStatus
		case "hw-management-timeout":
			cfg.HwManagementTimeout.Duration = cp.hwManagementTimeout
		}
	})
	if cfg.Platform == "" {
		cfg.Platform = os.Getenv("PLATFORM")
	}
}

func main() {
	fmt.Printf("Git commit: %s\n", GitCommit)
	cp := &cliParams{}
	cp.flagInit()
	defer glog.Flush()

	cfg, err := config.Load(cp.configPath)
	if err != nil {
		glog.Errorf("failed to load configuration: %v", err)
		os.Exit(2)
	}
	cp.applyTo(cfg)
	if err = cfg.Validate(); err != nil {
		glog.Errorf("invalid configuration: %v", err)
		os.Exit(2)
	}

	registry, err := platform.NewRegistry(mapping.PlatformMapping)
	if err != nil {
		glog.Fatalf("platform registration failed: %v", err)
	}
	if cp.listPlatforms {
		for _, id := range registry.IDs() {
			fmt.Println(id)
		}
		return
	}

	nodeName := os.Getenv("NODE_NAME")
	if nodeName == "" {
		nodeName, _ = os.Hostname()
	}
	metrics.RegisterMetrics(nodeName)

	sources := detect.DefaultSources(cfg.Root)
	if cfg.Platform != "" {
		sources = []detect.Source{detect.Static{PlatformID: cfg.Platform}}
	}
	reg, hint, err := detect.Resolve(registry, sources...)
	if err != nil {
		glog.Errorf("cannot determine the platform: %v", err)
		os.Exit(1)
	}
	platformID := reg.Identity.PlatformID
	glog.Infof("platform %s detected from %s", platformID, hint.Source)

	policy := platform.IgnoreExitStatus
	if cfg.FailOnExitStatus {
		policy = platform.FailOnExitStatus
	}
	descriptor, err := registry.New(platformID, platform.Options{
		Runner:         daemon.InstrumentRunner(platformID, command.ExecRunner{Timeout: cfg.HwManagementTimeout.Duration}),
		ExitPolicy:     policy,
		Root:           cfg.Root,
		EepromSource:   cfg.Eeprom.Source,
		EepromExporter: daemon.InstrumentExporter(platformID, eepromExporter(cfg, nodeName)),
	})
	if err != nil {
		glog.Errorf("failed to construct platform %s: %v", platformID, err)
		os.Exit(1)
	}
	reader := bsp.New(cfg.Root)

	if cp.dumpInventory {
		out, err := yaml.Marshal(daemon.CollectInventory(descriptor, reader))
		if err != nil {
			glog.Fatalf("failed to encode inventory: %v", err)
		}
		fmt.Print(string(out))
		return
	}

	bringup := daemon.NewBringup(descriptor)
	tracker := daemon.NewReadyTracker(bringup)
	if !cp.oneshot {
		daemon.StartMetricsServer(cfg.MetricsAddress)
		daemon.StartReadyServer(cfg.ReadyAddress, tracker)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case sig := <-sigCh:
			glog.Info("signal received during base configuration, cancelling ", sig)
			cancel()
			sigCh <- sig
		case <-ctx.Done():
		}
	}()
	ok, err := bringup.Run(ctx)
	cancel()
	if cp.oneshot {
		if !ok {
			glog.Errorf("base configuration of %s failed: %v", platformID, err)
			glog.Flush()
			os.Exit(1)
		}
		return
	}

	stopCh := make(chan struct{})
	if ok {
		telemetry := daemon.NewTelemetry(descriptor, reader)
		tracker.SetTelemetry(telemetry)
		go telemetry.Run(time.Second*time.Duration(cfg.UpdateInterval), stopCh)
	}

	sig := <-sigCh
	glog.Info("signal received, shutting down ", sig)
	close(stopCh)
}

// eepromExporter writes the ONL eeprom.json and, when enabled and reachable,
// publishes the node's EEPROM in a configmap.
func eepromExporter(cfg *config.Config, nodeName string) eeprom.Exporter {
	file := eeprom.FileExporter{Path: filepath.Join(cfg.Root, cfg.Eeprom.JSONPath)}
	if !cfg.Eeprom.Publish {
		return file
	}
	if os.Getenv("NODE_NAME") == "" {
		glog.Warning("cannot find NODE_NAME environment variable, eeprom is not published")
		return file
	}
	kubeCfg, err := config.GetKubeConfig()
	if err != nil {
		glog.Warningf("get kubeconfig failed, eeprom is not published: %v", err)
		return file
	}
	kubeClient, err := kubernetes.NewForConfig(kubeCfg)
	if err != nil {
		glog.Warningf("cannot create kubeClient, eeprom is not published: %v", err)
		return file
	}
	return eeprom.MultiExporter{file, eeprom.ConfigMapExporter{
		Client:    kubeClient,
		Namespace: cfg.Eeprom.Namespace,
		Name:      cfg.Eeprom.ConfigMap,
		Key:       nodeName,
	}}
}
