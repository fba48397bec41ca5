package cmd

import (
	"fmt"

	"github.com/OpenCHAMI/powerctl/internal/util"
	"github.com/OpenCHAMI/powerctl/pkg/client"
	"github.com/OpenCHAMI/powerctl/pkg/driver"
	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/OpenCHAMI/powerctl/pkg/runner"
	"github.com/OpenCHAMI/powerctl/pkg/secrets"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// driverFactory builds drivers sharing one HTTP client and secret store.
type driverFactory struct {
	store   secrets.SecretStore
	backend power.BackendOptions
}

func newDriverFactory() (*driverFactory, error) {
	store, err := util.BuildSecretStore()
	if err != nil {
		return nil, err
	}
	timeout := viper.GetDuration("timeout")
	insecure := viper.GetBool("network.insecure")
	return &driverFactory{
		store: store,
		backend: power.BackendOptions{
			Client: client.NewClient(
				client.WithTimeout(timeout),
				client.WithInsecure(insecure),
				client.WithSecureTLS(viper.GetString("network.cacert")),
			),
			Insecure: insecure,
			Timeout:  timeout,
		},
	}, nil
}

// build() creates the driver for a port. External commands get their own
// runner so output lines are logged and transcribed with the port name.
func (f *driverFactory) build(port power.Port) (driver.Driver, error) {
	r := &runner.Runner{
		Timeout:      viper.GetDuration("external.timeout"),
		PollInterval: viper.GetDuration("external.poll-interval"),
		Sentinel:     viper.GetString("external.sentinel"),
	}
	var onLine func([]string, string)
	if transcript != nil {
		onLine = transcript.OnLine(port.Name)
	}
	r.OnLine = func(argv []string, line string) {
		log.Debug().Str("port", port.Name).Msg(line)
		if onLine != nil {
			onLine(argv, line)
		}
	}

	d, err := driver.New(port,
		driver.WithExecutor(r),
		driver.WithSecretStore(f.store),
		driver.WithBackendOptions(f.backend),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver for port '%s': %w", port.Name, err)
	}
	return d, nil
}
