package ccb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"givingreport/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL:    srv.URL,
		Username:   "reporter",
		Password:   "hunter2",
		HTTPClient: srv.Client(),
		Logger:     zerolog.Nop(),
		Now: func() time.Time {
			return time.Date(2014, time.June, 15, 0, 0, 0, 0, time.UTC)
		},
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{Subdomain: "church"})
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, err = New(Options{Username: "reporter", Password: "hunter2"})
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLogin(t *testing.T) {
	var gotForm map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"ax":             r.PostFormValue("ax"),
			"form[login]":    r.PostFormValue("form[login]"),
			"form[password]": r.PostFormValue("form[password]"),
		}
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, handler)

	require.NoError(t, c.Login(context.Background()))
	require.Equal(t, "login", gotForm["ax"])
	require.Equal(t, "reporter", gotForm["form[login]"])
	require.Equal(t, "hunter2", gotForm["form[password]"])
}

func TestLoginFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	c := newTestClient(t, handler)

	err := c.Login(context.Background())
	require.ErrorIs(t, err, domain.ErrLoginFailed)
}

func TestTransactionsFiltersAndCollectsIDs(t *testing.T) {
	const header = "Name,Campus,COA Category,Family ID,Ind ID\n"
	byYear := map[string]string{
		"01/01/2013": header +
			"Doe Jane,Main,General Fund : Missions : Projects,7,70\n" +
			"Roe Rick,Main,General Fund : Operating : Utilities,8,80\n",
		"01/01/2014": header +
			"Doe John,Main,Outreach : Water Filters,7,71\n",
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		req := r.PostFormValue("request")
		for from, body := range byYear {
			if strings.Contains(req, from) {
				w.Write([]byte(body))
				return
			}
		}
		w.Write([]byte("<html>no results</html>"))
	})
	c := newTestClient(t, handler)

	pull, err := c.Transactions(context.Background())
	require.NoError(t, err)

	// Header plus the two program rows; the Utilities row is filtered out.
	require.Len(t, pull.Transactions, 3)
	require.Equal(t, "Doe Jane", pull.Transactions[1][0])
	require.Equal(t, "Doe John", pull.Transactions[2][0])
	require.Equal(t, map[int64]struct{}{7: {}}, pull.FamilyIDs)
	require.Equal(t, map[int64]struct{}{70: {}, 71: {}}, pull.IndividualIDs)
}

func TestTransactionsSkipsEmptyYears(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>report shell, no data</html>"))
	})
	c := newTestClient(t, handler)

	pull, err := c.Transactions(context.Background())
	require.NoError(t, err)
	require.Empty(t, pull.Transactions)
	require.Empty(t, pull.FamilyIDs)
}

func TestIndividualsFiltersByFamily(t *testing.T) {
	body := `"Ind ID","Family ID","Last Name"` + "\n" +
		`70,7,Doe` + "\n" +
		`80,8,Roe` + "\n" +
		`71,7,Doe` + "\n"
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "export", r.PostFormValue("output"))
		w.Write([]byte(body))
	})
	c := newTestClient(t, handler)

	rows, err := c.Individuals(context.Background(), map[int64]struct{}{7: {}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "70", rows[1][0])
	require.Equal(t, "71", rows[2][0])
}

func TestIndividualsRejected(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>export not ready</html>"))
	})
	c := newTestClient(t, handler)

	_, err := c.Individuals(context.Background(), map[int64]struct{}{})
	require.ErrorIs(t, err, domain.ErrReportRejected)
}
