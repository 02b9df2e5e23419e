package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/app/system/authutil"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCLI(t *testing.T, stdin string) (*cli, *bytes.Buffer, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	out := &bytes.Buffer{}
	c := &cli{db: db, log: zap.NewNop(), in: strings.NewReader(stdin), out: out}
	return c, out, testutil.NewFixtures(t, db)
}

func run(t *testing.T, c *cli, args ...string) error {
	t.Helper()
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(c.out)
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestCreateAdmin_NewAccountFromStdin(t *testing.T) {
	t.Setenv("BLOODCONNECT_ADMIN_PASSWORD", "")
	c, out, _ := newTestCLI(t, "s3cure-Passw0rd\n")

	require.NoError(t, run(t, c, "create-admin", "--email", " Coord@Campus.EDU ", "--name", "Blood  Coordinator"))
	assert.Contains(t, out.String(), "coord@campus.edu is an administrator")

	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct, err := accountstore.New(c.db).GetByEmail(ctx, "coord@campus.edu")
	require.NoError(t, err)
	require.NotNil(t, acct.PasswordHash)
	assert.True(t, authutil.CheckPassword("s3cure-Passw0rd", *acct.PasswordHash))
	assert.Equal(t, "Blood Coordinator", acct.Name)

	role, err := adminstore.New(c.db).RoleFor(ctx, "coord@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestCreateAdmin_PasswordFromEnvironment(t *testing.T) {
	t.Setenv("BLOODCONNECT_ADMIN_PASSWORD", "from-the-env-123")
	c, _, _ := newTestCLI(t, "")

	require.NoError(t, run(t, c, "create-admin", "--email", "env@campus.edu", "--name", "Env Admin"))

	ctx, cancel := testutil.TestContext()
	defer cancel()
	acct, err := accountstore.New(c.db).GetByEmail(ctx, "env@campus.edu")
	require.NoError(t, err)
	assert.True(t, authutil.CheckPassword("from-the-env-123", *acct.PasswordHash))
}

func TestCreateAdmin_PromotesExistingAccount(t *testing.T) {
	t.Setenv("BLOODCONNECT_ADMIN_PASSWORD", "")
	c, _, fx := newTestCLI(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateAccount(ctx, "donor@campus.edu", "Asha Rao")

	// No password needed when the account exists.
	require.NoError(t, run(t, c, "create-admin", "--email", "donor@campus.edu", "--name", "Asha Rao"))

	role, err := adminstore.New(c.db).RoleFor(ctx, "donor@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestCreateAdmin_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"bad email", "s3cure-Passw0rd\n", []string{"create-admin", "--email", "nope", "--name", "X"}},
		{"missing name flag", "s3cure-Passw0rd\n", []string{"create-admin", "--email", "a@b.co"}},
		{"no password", "", []string{"create-admin", "--email", "a@b.co", "--name", "X"}},
		{"weak password", "123\n", []string{"create-admin", "--email", "a@b.co", "--name", "X"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BLOODCONNECT_ADMIN_PASSWORD", "")
			c, _, _ := newTestCLI(t, tc.stdin)
			assert.Error(t, run(t, c, tc.args...))
		})
	}
}

func TestExportDonors_FiltersAndWritesCSV(t *testing.T) {
	c, out, fx := newTestCLI(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateDonor(ctx, testutil.Donor("Asha Rao", "asha@campus.edu", "O+", "Hyderabad"))
	fx.CreateDonor(ctx, testutil.Donor("Ravi Kumar", "ravi@campus.edu", "A+", "Hyderabad"))
	away := testutil.Donor("Sita Devi", "sita@campus.edu", "O+", "Hyderabad")
	away.IsAvailable = false
	fx.CreateDonor(ctx, away)

	require.NoError(t, run(t, c, "export-donors", "--blood-group", "o+", "--availability", "Available"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2, "header plus one donor")
	assert.True(t, strings.HasPrefix(lines[0], "Name,Roll Number,Email"))
	assert.Contains(t, lines[1], "Asha Rao")
}

func TestExportDonors_AllMeansNoFilter(t *testing.T) {
	c, out, fx := newTestCLI(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateDonor(ctx, testutil.Donor("Asha Rao", "asha@campus.edu", "O+", "Hyderabad"))
	fx.CreateDonor(ctx, testutil.Donor("Ravi Kumar", "ravi@campus.edu", "A+", "Warangal"))

	require.NoError(t, run(t, c, "export-donors", "--blood-group", "all", "--district", "All"))
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 3)
}

func TestExportDonors_BadAvailability(t *testing.T) {
	c, _, _ := newTestCLI(t, "")
	assert.Error(t, run(t, c, "export-donors", "--availability", "sometimes"))
}

func TestListEmergencies(t *testing.T) {
	c, out, _ := newTestCLI(t, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := emergencystore.New(c.db)
	for _, bg := range []string{"O+", "AB-"} {
		_, err := store.Create(ctx, models.EmergencyRequest{
			BloodGroup:   bg,
			District:     "Hyderabad",
			Urgency:      models.UrgencyCritical,
			ContactName:  "Ward 4",
			ContactPhone: "9876543210",
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, run(t, c, "list-emergencies", "--limit", "1"))

	s := out.String()
	assert.Contains(t, s, "AB-", "newest first")
	assert.NotContains(t, s, "O+")
	assert.Contains(t, s, "1 request(s)")
}
