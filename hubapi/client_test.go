package hubapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taxbase/metricshub/hubapi"
	apperrors "github.com/taxbase/metricshub/internal/errors"
	"github.com/taxbase/metricshub/internal/hubtest"
	"github.com/taxbase/metricshub/session"
	"github.com/taxbase/metricshub/session/storage"
)

type staticTokens struct{ token string }

func (s *staticTokens) Token() string { return s.token }

type expiryCounter struct{ calls int }

func (e *expiryCounter) SessionExpired() { e.calls++ }

func startHub(t *testing.T) *hubtest.Server {
	t.Helper()
	hub := hubtest.New()
	t.Cleanup(hub.Close)
	hub.AddUser("ana", "s3cret", "admin", "Ana Souza")
	return hub
}

func authedClient(t *testing.T, hub *hubtest.Server) (*hubapi.Client, *expiryCounter) {
	t.Helper()
	expiry := &expiryCounter{}
	client, err := hubapi.NewClient(hub.URL(),
		hubapi.WithTokenSource(&staticTokens{token: hub.IssueToken("ana")}),
		hubapi.WithExpiryHandler(expiry),
	)
	require.NoError(t, err)
	return client, expiry
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := hubapi.NewClient("  ")
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	hub := startHub(t)
	ctx := context.Background()

	t.Run("exchanges credentials for a token", func(t *testing.T) {
		client, expiry := authedClient(t, hub)

		resp, err := client.Login(ctx, "ana", "s3cret")
		require.NoError(t, err)
		require.NotEmpty(t, resp.AccessToken)
		require.Equal(t, "bearer", resp.TokenType)
		require.Equal(t, "admin", resp.UserRole)
		require.Zero(t, expiry.calls)
	})

	t.Run("wrong password is invalid credentials, not expiry", func(t *testing.T) {
		client, expiry := authedClient(t, hub)

		_, err := client.Login(ctx, "ana", "wrong")
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
		require.Zero(t, expiry.calls, "a login 401 must not fire the expiry hook")
	})

	t.Run("unknown user is invalid credentials", func(t *testing.T) {
		client, _ := authedClient(t, hub)
		_, err := client.Login(ctx, "nobody", "s3cret")
		require.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
	})
}

func TestTokenRejection(t *testing.T) {
	hub := startHub(t)
	ctx := context.Background()

	t.Run("a data 401 fires the expiry hook", func(t *testing.T) {
		client, expiry := authedClient(t, hub)
		hub.ExpireSessions()
		defer hub.Restore()

		_, err := client.ListMonths(ctx)
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
		require.Equal(t, 1, expiry.calls)
	})

	t.Run("a missing token is rejected the same way", func(t *testing.T) {
		expiry := &expiryCounter{}
		client, err := hubapi.NewClient(hub.URL(),
			hubapi.WithTokenSource(&staticTokens{}),
			hubapi.WithExpiryHandler(expiry),
		)
		require.NoError(t, err)

		_, err = client.ListMonths(ctx)
		require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
	})

	t.Run("an unreachable backend is a transport error", func(t *testing.T) {
		deadHub := hubtest.New()
		deadURL := deadHub.URL()
		deadHub.Close()

		dead, err := hubapi.NewClient(deadURL)
		require.NoError(t, err)
		_, err = dead.ListMonths(ctx)
		require.True(t, apperrors.Is(err, apperrors.ErrTransport))
	})
}

func TestDataEndpoints(t *testing.T) {
	hub := startHub(t)
	hub.SetCatalog("2025", "2025_03", "Março 2025", 3)
	hub.SetCatalog("2025", "2025_04", "Abril 2025", 4)
	hub.SetMonth("2025_03", []map[string]any{
		{"Data": "2025-03-05T10:00:00", "Atendido por": "ana", "Cliente_Final": "ACME"},
	})
	hub.SetMonth("2025_04", []map[string]any{
		{"Data": "2025-04-02T11:00:00", "Atendido por": "bia", "Cliente_Final": "GLOBEX"},
		{"Data": "2025-04-03T12:00:00", "Atendido por": "ana", "Cliente_Final": "ACME"},
	})

	client, _ := authedClient(t, hub)
	ctx := context.Background()

	t.Run("catalog maps onto periods", func(t *testing.T) {
		catalog, err := client.ListMonths(ctx)
		require.NoError(t, err)
		require.Len(t, catalog["2025"], 2)
		require.Equal(t, "2025_03", catalog["2025"][0].ID)
		require.Equal(t, "Março 2025", catalog["2025"][0].Display)
		require.Equal(t, 3, catalog["2025"][0].RawMonth)
	})

	t.Run("single month fetch", func(t *testing.T) {
		records, err := client.GetMonth(ctx, "2025_03")
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "ACME", records[0].Client())
	})

	t.Run("missing month is not found", func(t *testing.T) {
		_, err := client.GetMonth(ctx, "1999_01")
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("batch fetch merges periods from the alternate envelope", func(t *testing.T) {
		records, err := client.GetPeriod(ctx, []string{"2025_03", "2025_04"})
		require.NoError(t, err)
		require.Len(t, records, 3)
	})

	t.Run("FetchRecords picks the cheapest shape", func(t *testing.T) {
		records, err := client.FetchRecords(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, records)

		records, err = client.FetchRecords(ctx, []string{"2025_04"})
		require.NoError(t, err)
		require.Len(t, records, 2)

		records, err = client.FetchRecords(ctx, []string{"2025_03", "2025_04"})
		require.NoError(t, err)
		require.Len(t, records, 3)
	})
}

func TestDepartmentAndLabelEndpoints(t *testing.T) {
	hub := startHub(t)
	hub.SetDepartment("ANA", "FISCAL")

	client, _ := authedClient(t, hub)
	ctx := context.Background()

	mapping, err := client.GetDepartments(ctx)
	require.NoError(t, err)
	require.Equal(t, "FISCAL", mapping["ANA"])

	require.NoError(t, client.UpdateDepartment(ctx, "BIA", "CONTÁBIL"))
	mapping, err = client.GetDepartments(ctx)
	require.NoError(t, err)
	require.Equal(t, "CONTÁBIL", mapping["BIA"])

	require.NoError(t, client.SetLabel(ctx, "2025_04", "fechamento"))
	labels, err := client.GetLabels(ctx)
	require.NoError(t, err)
	require.Equal(t, "fechamento", labels["2025_04"])

	require.NoError(t, client.SetLabel(ctx, "2025_04", ""))
	labels, err = client.GetLabels(ctx)
	require.NoError(t, err)
	require.Empty(t, labels["2025_04"])
}

func TestAdminEndpoints(t *testing.T) {
	hub := startHub(t)
	client, _ := authedClient(t, hub)
	ctx := context.Background()

	t.Run("system lifecycle", func(t *testing.T) {
		system := hubapi.System{ID: "crm", Name: "CRM", URL: "https://crm"}
		require.NoError(t, client.CreateSystem(ctx, system))

		err := client.CreateSystem(ctx, system)
		require.True(t, apperrors.Is(err, apperrors.ErrConflict))

		require.NoError(t, client.UpdateSystemStatus(ctx, "crm", "manutencao"))
		systems, err := client.ListSystems(ctx)
		require.NoError(t, err)
		require.Len(t, systems, 1)
		require.Equal(t, "manutencao", systems[0].ManualStatus)

		require.NoError(t, client.DeleteSystem(ctx, "crm"))
		err = client.DeleteSystem(ctx, "crm")
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("user lifecycle", func(t *testing.T) {
		account := hubapi.Account{Name: "Bia", Email: "bia@x", Password: "pw", RoleID: "viewer"}
		require.NoError(t, client.CreateUser(ctx, account))
		require.NoError(t, client.UpdateUserRole(ctx, "bia@x", "gestor"))

		accounts, err := client.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		require.Equal(t, "gestor", accounts[0].RoleID)

		require.NoError(t, client.DeleteUser(ctx, "bia@x"))
		err = client.UpdateUserRole(ctx, "bia@x", "viewer")
		require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("role lifecycle", func(t *testing.T) {
		require.NoError(t, client.CreateRole(ctx, hubapi.RoleDef{ID: "gestor", Name: "Gestor", Permission: "user"}))
		require.NoError(t, client.UpdateRole(ctx, "gestor", "gestão fiscal", "admin"))

		roles, err := client.ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 1)
		require.Equal(t, "admin", roles[0].Permission)

		require.NoError(t, client.DeleteRole(ctx, "gestor"))
	})
}

// TestSessionIntegration wires the real session store against the fake hub:
// login through the client, token injection, and forced logout when the
// backend starts rejecting the token.
func TestSessionIntegration(t *testing.T) {
	hub := startHub(t)
	ctx := context.Background()

	st := storage.NewMemory()

	var store *session.Store
	client, err := hubapi.NewClient(hub.URL(),
		hubapi.WithTokenSource(hubapi.TokenSourceFunc(func() string { return store.Token() })),
		hubapi.WithExpiryHandler(hubapi.ExpiryHandlerFunc(func() { store.SessionExpired() })),
	)
	require.NoError(t, err)

	store, err = session.NewStore(session.Deps{Storage: st, Auth: client, HubURL: "https://hub"})
	require.NoError(t, err)

	_, err = store.Login(ctx, "ana", "s3cret")
	require.NoError(t, err)

	_, err = client.ListMonths(ctx)
	require.NoError(t, err, "the stored token authenticates data calls")

	logouts := 0
	store.Subscribe(func(s session.Session, loggedIn bool) {
		if !loggedIn {
			logouts++
		}
	})

	hub.ExpireSessions()
	_, err = client.ListMonths(ctx)
	require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
	_, err = client.ListMonths(ctx)
	require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))

	require.Equal(t, 1, logouts, "several rejected calls force a single logout")
	_, ok := store.Current()
	require.False(t, ok)
}
