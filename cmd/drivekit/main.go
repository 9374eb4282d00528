package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"

	"github.com/openloop-robotics/godrivekit/canbus"
	"github.com/openloop-robotics/godrivekit/candevice"
	"github.com/openloop-robotics/godrivekit/config"
	"github.com/openloop-robotics/godrivekit/motor"
)

type EnvConfig struct {
	ConfigFile string `env:"DRIVEKIT_CONFIG" envDefault:"./drivekit.yaml"`
	Debug      bool   `env:"DEBUG" envDefault:"0"`
}

// RigConfig describes the bus and the motors hanging off it. The same YAML
// document doubles as the tunables store, so profile keys like
// "magEncoder.neutralDeadband" live alongside the motors block.
type RigConfig struct {
	Bus    string
	Motors map[string]MotorConfig
}

type MotorConfig struct {
	ID      uint32
	Profile string
	DPR     float64 `yaml:"dpr"`
	UPR     int     `yaml:"upr"`
	PID     *struct {
		P, I, D, F float64
		IZone      int `yaml:"izone"`
	} `yaml:"pid"`
}

var profiles = map[string]motor.ControllerProfile{
	"regular":       motor.ProfileRegular,
	"magEncoder":    motor.ProfileMagEncoder,
	"magEncoderAbs": motor.ProfileMagEncoderAbsolute,
	"quad":          motor.ProfileQuadEncoder,
}

func main() {
	envCfg := new(EnvConfig)
	if err := env.Parse(envCfg); err != nil {
		log.Fatal(err)
	}

	configFile := flag.String("config", envCfg.ConfigFile, "Path to the rig config file")
	flag.Parse()

	raw, err := ioutil.ReadFile(*configFile)
	if err != nil {
		log.Fatalf("Unable to read config file: %v", err)
	}

	var rig RigConfig
	if err = yaml.Unmarshal(raw, &rig); err != nil {
		log.Fatalf("Unable to unmarshal config: %v", err)
	}

	store, err := config.Parse(raw)
	if err != nil {
		log.Fatalf("Unable to build tunables store: %v", err)
	}

	bus, err := canbus.NewBus(rig.Bus)
	if err != nil {
		log.Fatalf("Unable to open bus %s: %v", rig.Bus, err)
	}
	defer bus.Close()

	motors := make(map[string]*motor.MotorController, len(rig.Motors))
	for name, mc := range rig.Motors {
		profile, ok := profiles[mc.Profile]
		if !ok {
			log.Fatalf("Motor %s: unknown profile %q", name, mc.Profile)
		}

		dev, err := candevice.New(bus, mc.ID)
		if err != nil {
			log.Fatalf("Motor %s: %v", name, err)
		}

		m, err := motor.New(dev, profile, store)
		if err != nil {
			log.Fatalf("Motor %s: %v", name, err)
		}

		m.SetDistancePerRevolution(mc.DPR, mc.UPR)

		if mc.PID != nil {
			if err = m.SetupPIDF(mc.PID.P, mc.PID.I, mc.PID.D, mc.PID.F); err != nil {
				log.Fatalf("Motor %s: %v", name, err)
			}
			if err = m.SetupIZone(mc.PID.IZone); err != nil {
				log.Fatalf("Motor %s: %v", name, err)
			}
		}

		motors[name] = m
	}

	motorNames := func([]string) []string {
		names := make([]string, 0, len(motors))
		for name := range motors {
			names = append(names, name)
		}
		return names
	}

	findMotor := func(c *ishell.Context) *motor.MotorController {
		if len(c.Args) < 1 {
			c.Err(fmt.Errorf("usage: %s <motor> ...", c.Cmd.Name))
			return nil
		}
		m, ok := motors[c.Args[0]]
		if !ok {
			c.Err(fmt.Errorf("no such motor %q", c.Args[0]))
			return nil
		}
		return m
	}

	shell := ishell.New()
	shell.Println("drivekit development shell")

	shell.AddCmd(&ishell.Cmd{
		Name:      "state",
		Completer: motorNames,
		Help:      "state <motor>",
		Func: func(c *ishell.Context) {
			m := findMotor(c)
			if m == nil {
				return
			}

			dist, err := m.Distance()
			if err != nil {
				c.Err(err)
				return
			}
			vel, err := m.Velocity()
			if err != nil {
				c.Err(err)
				return
			}
			raw, err := m.RawPosition()
			if err != nil {
				c.Err(err)
				return
			}

			c.Printf("distance=%.3f velocity=%.3f raw=%d\n", dist, vel, raw)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "zero",
		Completer: motorNames,
		Help:      "zero <motor>",
		Func: func(c *ishell.Context) {
			m := findMotor(c)
			if m == nil {
				return
			}

			if err := m.ZeroSensor(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "out",
		Completer: motorNames,
		Help:      "out <motor> <percent -1..1>",
		Func: func(c *ishell.Context) {
			m := findMotor(c)
			if m == nil || len(c.Args) < 2 {
				return
			}

			output, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				c.Err(err)
				return
			}

			if err := m.SetPercentOutput(output); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "setdist",
		Completer: motorNames,
		Help:      "setdist <motor> <distance>",
		Func: func(c *ishell.Context) {
			m := findMotor(c)
			if m == nil || len(c.Args) < 2 {
				return
			}

			dist, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				c.Err(err)
				return
			}

			if err := m.SetDistance(dist); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "err",
		Completer: motorNames,
		Help:      "err <motor>",
		Func: func(c *ishell.Context) {
			m := findMotor(c)
			if m == nil {
				return
			}

			loopErr, err := m.ClosedLoopError()
			if err != nil {
				c.Err(err)
				return
			}

			c.Printf("closed loop error=%.3f\n", loopErr)
		},
	})

	shell.Run()
}
