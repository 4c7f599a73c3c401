package automation

import (
	"testing"

	"github.com/javanstorm/wsltamer/internal/profile"
)

func rule(trigger profile.TriggerType, value string) profile.Rule {
	return profile.Rule{
		ID:              "r",
		Name:            "test",
		Enabled:         true,
		TriggerType:     trigger,
		TriggerValue:    value,
		TargetProfileID: "eco",
	}
}

func TestEvaluateTime(t *testing.T) {
	tests := []struct {
		value string
		now   string
		want  bool
	}{
		{"09:00-17:00", "12:00", true},
		{"09:00-17:00", "20:00", false},
		{"09:00-17:00", "09:00", true},
		{"09:00-17:00", "17:00", true},
		{"22:00-06:00", "23:00", true},
		{"22:00-06:00", "03:00", true},
		{"22:00-06:00", "12:00", false},
		{"22:00-06:00", "06:00", true},
		{" 09:00 - 17:00 ", "12:00", true},
		{"09:00", "12:00", false},
		{"09:00-12:00-17:00", "10:00", false},
		{"9:00-17:00", "12:00", false},
		{"25:00-26:00", "25:30", false},
		{"09:00-17:00", "", false},
	}

	for _, tt := range tests {
		state := SystemState{CurrentTime: tt.now}
		if got := Evaluate(rule(profile.TriggerTime, tt.value), state); got != tt.want {
			t.Errorf("Evaluate(Time %q) at %q = %v, want %v", tt.value, tt.now, got, tt.want)
		}
	}
}

func TestEvaluateProcess(t *testing.T) {
	tests := []struct {
		value   string
		running []string
		want    bool
	}{
		{"Code", []string{"explorer", "CODE"}, true},
		{"Code", []string{"code.exe"}, true},
		{"code.exe", []string{"Code"}, true},
		{"steam", []string{"steamwebhelper"}, false},
		{"Code", nil, false},
		{"", []string{""}, false},
	}

	for _, tt := range tests {
		state := SystemState{RunningProcesses: tt.running}
		if got := Evaluate(rule(profile.TriggerProcess, tt.value), state); got != tt.want {
			t.Errorf("Evaluate(Process %q) with %v = %v, want %v", tt.value, tt.running, got, tt.want)
		}
	}
}

func TestEvaluatePower(t *testing.T) {
	tests := []struct {
		value string
		power PowerState
		want  bool
	}{
		{"battery", PowerBattery, true},
		{"on_battery", PowerBattery, true},
		{"Battery", PowerAC, false},
		{"ac", PowerAC, true},
		{"plugged", PowerAC, true},
		{"plugged_in", PowerAC, true},
		{"ac", PowerUnknown, false},
		{"battery", PowerUnknown, false},
		{"solar", PowerAC, false},
	}

	for _, tt := range tests {
		state := SystemState{Power: tt.power}
		if got := Evaluate(rule(profile.TriggerPowerState, tt.value), state); got != tt.want {
			t.Errorf("Evaluate(PowerState %q) on %v = %v, want %v", tt.value, tt.power, got, tt.want)
		}
	}
}

func TestEvaluateNetwork(t *testing.T) {
	tests := []struct {
		value     string
		connected bool
		want      bool
	}{
		{"connected", true, true},
		{"online", true, true},
		{"connected", false, false},
		{"disconnected", false, true},
		{"offline", false, true},
		{"offline", true, false},
		{"metered", true, false},
	}

	for _, tt := range tests {
		state := SystemState{NetworkConnected: tt.connected}
		if got := Evaluate(rule(profile.TriggerNetwork, tt.value), state); got != tt.want {
			t.Errorf("Evaluate(Network %q) connected=%v = %v, want %v", tt.value, tt.connected, got, tt.want)
		}
	}
}

func TestEvaluateDisabledNeverMatches(t *testing.T) {
	r := rule(profile.TriggerNetwork, "online")
	r.Enabled = false
	if Evaluate(r, SystemState{NetworkConnected: true}) {
		t.Error("disabled rule matched")
	}
}

func TestEvaluateUnknownTrigger(t *testing.T) {
	if Evaluate(rule(profile.TriggerType("Weather"), "rain"), SystemState{}) {
		t.Error("unknown trigger type matched")
	}
}

func TestFirstMatch(t *testing.T) {
	rules := []profile.Rule{
		rule(profile.TriggerProcess, "steam"),
		rule(profile.TriggerPowerState, "battery"),
		rule(profile.TriggerNetwork, "offline"),
	}
	rules[1].ID = "power"
	rules[2].ID = "network"

	got, ok := FirstMatch(rules, SystemState{Power: PowerBattery})
	if !ok || got.ID != "power" {
		t.Errorf("FirstMatch() = %q, %v, want power", got.ID, ok)
	}

	_, ok = FirstMatch(rules, SystemState{Power: PowerAC, NetworkConnected: true})
	if ok {
		t.Error("FirstMatch() matched with no firing rule")
	}
}

func TestParsePowerState(t *testing.T) {
	tests := []struct {
		in   string
		want PowerState
	}{
		{"AC", PowerAC},
		{"battery", PowerBattery},
		{"Unknown", PowerUnknown},
		{"", PowerUnknown},
	}
	for _, tt := range tests {
		if got := ParsePowerState(tt.in); got != tt.want {
			t.Errorf("ParsePowerState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
