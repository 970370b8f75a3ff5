package external

import (
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"
	log "github.com/sirupsen/logrus"

	"promptq/config"
)

var profiler *pyroscope.Profiler

// InitPyroscope starts continuous profiling when a server address is set.
// Mutex and block profiles are only collected when their rates are set.
func InitPyroscope() {
	settings := config.Config.Pyroscope
	if settings.ServerAddress == "" {
		return
	}
	log.Infof("Pyroscope starting, reporting to %s", settings.ServerAddress)

	profileTypes := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if settings.MutexProfileFraction > 0 {
		runtime.SetMutexProfileFraction(settings.MutexProfileFraction)
		profileTypes = append(profileTypes, pyroscope.ProfileMutexDuration)
	}
	if settings.BlockProfileRate > 0 {
		runtime.SetBlockProfileRate(settings.BlockProfileRate)
		profileTypes = append(profileTypes, pyroscope.ProfileBlockDuration)
	}

	pyroscopeConfig := pyroscope.Config{
		ApplicationName: settings.ApplicationName,
		ServerAddress:   settings.ServerAddress,
		Tags: map[string]string{
			"hostname": os.Getenv("HOSTNAME"),
			"sheet":    config.Config.Sheet.SheetName,
		},
		ProfileTypes: profileTypes,
	}
	if settings.Logger {
		pyroscopeConfig.Logger = pyroscope.StandardLogger
	}

	switch {
	case settings.ApiKey != "":
		pyroscopeConfig.HTTPHeaders = map[string]string{"Authorization": "Bearer " + settings.ApiKey}
	case settings.BasicAuthUser != "":
		pyroscopeConfig.BasicAuthUser = settings.BasicAuthUser
		pyroscopeConfig.BasicAuthPassword = settings.BasicAuthPassword
	}

	p, err := pyroscope.Start(pyroscopeConfig)
	if err != nil {
		log.Errorf("Pyroscope Init Failed: %s", err)
		return
	}
	profiler = p
}

// StopPyroscope flushes and stops the profiler, if one was started.
func StopPyroscope() {
	if profiler == nil {
		return
	}
	if err := profiler.Stop(); err != nil {
		log.Warnf("Pyroscope stop: %s", err)
	}
}
