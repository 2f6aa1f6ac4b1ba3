package modules

import (
	"math"
	"testing"

	"github.com/edmlab/wedm-sim/types"
)

func newTestDielectric(t *testing.T, cfg DielectricConfig) *Dielectric {
	t.Helper()
	d, err := NewDielectric(cfg)
	if err != nil {
		t.Fatalf("NewDielectric: %v", err)
	}
	return d
}

func TestDebrisAccumulationAndDecay(t *testing.T) {
	cfg := DefaultDielectricConfig()
	d := newTestDielectric(t, cfg)
	s := testState(20.0)

	// fresh discharge deposits beta * volume, then the same tick decays
	freshSpark(s)
	s.LastCraterVolume = 10000.0
	if err := d.Update(s); err != nil {
		t.Fatal(err)
	}
	want := cfg.Beta * 10000.0 * (1 - cfg.Gamma*cfg.FlowRate)
	if math.Abs(s.DebrisConcentration-want) > 1e-12 {
		t.Fatalf("debris after deposit %.9f, want %.9f", s.DebrisConcentration, want)
	}

	// without discharges the concentration decays geometrically
	s.SparkStatus = types.SparkStatus{State: types.SparkIdle}
	prev := s.DebrisConcentration
	for i := 0; i < 1000; i++ {
		if err := d.Update(s); err != nil {
			t.Fatal(err)
		}
		if s.DebrisConcentration >= prev {
			t.Fatalf("debris did not decay at tick %d", i)
		}
		if s.DebrisConcentration < 0 {
			t.Fatalf("debris negative at tick %d", i)
		}
		prev = s.DebrisConcentration
	}
}

func TestDebrisSaturation(t *testing.T) {
	d := newTestDielectric(t, DefaultDielectricConfig())
	s := testState(20.0)
	s.DebrisConcentration = 0.999

	freshSpark(s)
	s.LastCraterVolume = 1e9 // absurdly large deposit
	if err := d.Update(s); err != nil {
		t.Fatal(err)
	}
	if s.DebrisConcentration > 1 {
		t.Fatalf("debris %.6f exceeds saturation", s.DebrisConcentration)
	}
}

func TestIonizedChannelLifetime(t *testing.T) {
	cfg := DefaultDielectricConfig() // tau = 6
	d := newTestDielectric(t, cfg)
	s := testState(20.0)

	freshSpark(s)
	s.SparkStatus.Location = 3.5
	s.LastCraterVolume = 1000.0
	if err := d.Update(s); err != nil {
		t.Fatal(err)
	}
	if !s.IonizedChannel.Active {
		t.Fatal("channel not active after discharge")
	}
	if s.IonizedChannel.Location != 3.5 {
		t.Errorf("channel location %.2f, want 3.5", s.IonizedChannel.Location)
	}
	// the activation tick already consumes one tick of lifetime
	if s.IonizedChannel.Remaining != cfg.TauDeionization-1 {
		t.Errorf("remaining %d after activation tick, want %d",
			s.IonizedChannel.Remaining, cfg.TauDeionization-1)
	}

	s.SparkStatus = types.SparkStatus{State: types.SparkOff}
	for i := 0; i < cfg.TauDeionization-2; i++ {
		if err := d.Update(s); err != nil {
			t.Fatal(err)
		}
		if !s.IonizedChannel.Active {
			t.Fatalf("channel deionized early, %d ticks after activation", i+2)
		}
	}
	if err := d.Update(s); err != nil {
		t.Fatal(err)
	}
	if s.IonizedChannel.Active {
		t.Fatal("channel still active past its lifetime")
	}
	if s.IonizedChannel.Remaining != 0 {
		t.Errorf("deactivated channel keeps remaining %d", s.IonizedChannel.Remaining)
	}
}

func TestDielectricPublishesConditions(t *testing.T) {
	cfg := DefaultDielectricConfig()
	cfg.Temperature = 300.0
	cfg.FlowRate = 0.5
	d := newTestDielectric(t, cfg)
	s := testState(20.0)

	if err := d.Update(s); err != nil {
		t.Fatal(err)
	}
	if s.DielectricTemperature != 300.0 {
		t.Errorf("dielectric temperature %.2f, want 300.0", s.DielectricTemperature)
	}
	if s.DielectricFlowRate != 0.5 {
		t.Errorf("flow rate %.2f, want 0.5", s.DielectricFlowRate)
	}
}

func TestDielectricConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*DielectricConfig)
	}{
		{"flow rate above 1", func(c *DielectricConfig) { c.FlowRate = 1.5 }},
		{"negative flow rate", func(c *DielectricConfig) { c.FlowRate = -0.1 }},
		{"negative decay", func(c *DielectricConfig) { c.Gamma = -1e-3 }},
		{"zero deionization time", func(c *DielectricConfig) { c.TauDeionization = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultDielectricConfig()
			tc.mutate(&cfg)
			if _, err := NewDielectric(cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}
