package doctor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/registry"
	"github.com/pi-messenger/messenger/internal/swarm"
)

func TestDeadRegistrationCheck_NoRegistryDir(t *testing.T) {
	check := NewDeadRegistrationCheck()
	ctx := &Context{BaseDir: t.TempDir()}
	result := check.Run(ctx)
	if result.Status != StatusOK {
		t.Errorf("Status = %v, want StatusOK", result.Status)
	}
}

func TestDeadRegistrationCheck_FindsDeadPID(t *testing.T) {
	baseDir := t.TempDir()
	regDir := filepath.Join(baseDir, constants.RegistryDirName)
	if err := os.MkdirAll(regDir, 0o755); err != nil {
		t.Fatal(err)
	}
	reg := registry.Registration{Name: "Ghost", PID: 999999999}
	if err := atomicio.WriteJSONAtomic(filepath.Join(regDir, "Ghost.json"), reg); err != nil {
		t.Fatal(err)
	}

	result := NewDeadRegistrationCheck().Run(&Context{BaseDir: baseDir})
	if result.Status != StatusWarning {
		t.Fatalf("Status = %v, want StatusWarning", result.Status)
	}
	if len(result.Details) != 1 {
		t.Errorf("Details = %v, want 1 entry", result.Details)
	}
}

func TestOrphanClaimCheck_FlagsClaimWithNoRegistration(t *testing.T) {
	baseDir := t.TempDir()
	claims := claimsFile{
		"PRD.md": {
			"task-1": swarm.Claim{Agent: "Nobody", Timestamp: time.Now()},
		},
	}
	data, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(baseDir, constants.ClaimsFileName), data, 0o644); err != nil {
		t.Fatal(err)
	}

	result := NewOrphanClaimCheck().Run(&Context{BaseDir: baseDir})
	if result.Status != StatusWarning {
		t.Fatalf("Status = %v, want StatusWarning", result.Status)
	}
}

func TestAutoRegisterPathCheck_NoPathsConfigured(t *testing.T) {
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	result := NewAutoRegisterPathCheck().Run(&Context{})
	if result.Status != StatusOK {
		t.Errorf("Status = %v, want StatusOK", result.Status)
	}
}

func TestDoctorRunAllOrdersChecks(t *testing.T) {
	d := NewDoctor()
	d.RegisterAll(DefaultChecks()...)
	results := d.RunAll(&Context{BaseDir: t.TempDir()})
	if len(results) != len(DefaultChecks()) {
		t.Fatalf("got %d results, want %d", len(results), len(DefaultChecks()))
	}
}
