//go:build integration

package credstore_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"biovault/internal/credstore"
	"biovault/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx     context.Context
	pg      *containers.PostgresContainer
	store   *credstore.Postgres
	granted bool
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sealer, err := credstore.NewSealer([]byte("integration-test-master-secret"))
	s.Require().NoError(err)
	s.store = credstore.NewPostgres(s.pg.DB, logger,
		credstore.WithPostgresSealer(sealer),
		credstore.WithPostgresAuthorizer(func(context.Context) bool { return s.granted }),
	)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.pg.DB.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.granted = true
	s.Require().NoError(s.pg.Truncate(s.ctx, "credstore_entries"))
}

func (s *PostgresStoreSuite) TestAddGetRoundTrip() {
	s.Require().Equal(credstore.StatusSuccess, s.store.Add(s.ctx, attrs("svc", "token", []byte("abc123"))))

	q := query("svc", "token")
	q.ReturnValue = true
	item, st := s.store.Get(s.ctx, q)
	s.Require().Equal(credstore.StatusSuccess, st)
	s.Equal([]byte("abc123"), item.Value)
}

func (s *PostgresStoreSuite) TestSealedAtRest() {
	s.Require().Equal(credstore.StatusSuccess, s.store.Add(s.ctx, attrs("svc", "token", []byte("plaintext-value"))))

	var raw []byte
	err := s.pg.DB.QueryRowContext(s.ctx,
		`SELECT value FROM credstore_entries WHERE service = $1 AND account = $2`,
		"svc", "token",
	).Scan(&raw)
	s.Require().NoError(err)
	s.NotContains(string(raw), "plaintext-value", "value must not be stored in the clear")
}

func (s *PostgresStoreSuite) TestDuplicateAdd() {
	s.Require().Equal(credstore.StatusSuccess, s.store.Add(s.ctx, attrs("svc", "token", []byte("v1"))))
	s.Equal(credstore.StatusDuplicateItem, s.store.Add(s.ctx, attrs("svc", "token", []byte("v2"))))
}

func (s *PostgresStoreSuite) TestUpdate() {
	s.Run("modifies an existing entry", func() {
		s.Require().Equal(credstore.StatusSuccess, s.store.Add(s.ctx, attrs("svc", "token", []byte("v1"))))
		s.Require().Equal(credstore.StatusSuccess,
			s.store.Update(s.ctx, query("svc", "token"), credstore.Change{Value: []byte("v2")}))

		q := query("svc", "token")
		q.ReturnValue = true
		item, st := s.store.Get(s.ctx, q)
		s.Require().Equal(credstore.StatusSuccess, st)
		s.Equal([]byte("v2"), item.Value)
	})

	s.Run("missing entry is not found", func() {
		s.Equal(credstore.StatusNotFound,
			s.store.Update(s.ctx, query("svc", "ghost"), credstore.Change{Value: []byte("v")}))
	})
}

func (s *PostgresStoreSuite) TestDelete() {
	s.Require().Equal(credstore.StatusSuccess, s.store.Add(s.ctx, attrs("svc", "token", []byte("v"))))

	s.Equal(credstore.StatusSuccess, s.store.Delete(s.ctx, query("svc", "token")))
	s.Equal(credstore.StatusNotFound, s.store.Delete(s.ctx, query("svc", "token")))
}

func (s *PostgresStoreSuite) TestProtectedEntryChallenges() {
	entry := attrs("svc", "token", []byte("v"))
	acl, err := credstore.NewAccessControl(credstore.AccessibleWhenPasscodeSet, true)
	s.Require().NoError(err)
	entry.AccessControl = acl
	s.Require().Equal(credstore.StatusSuccess, s.store.Add(s.ctx, entry))

	s.Run("existence probe needs no challenge", func() {
		q := query("svc", "token")
		q.SuppressAuthUI = true
		_, st := s.store.Get(s.ctx, q)
		s.Equal(credstore.StatusSuccess, st)
	})

	s.Run("denied challenge fails the value read", func() {
		s.granted = false
		q := query("svc", "token")
		q.ReturnValue = true
		_, st := s.store.Get(s.ctx, q)
		s.Equal(credstore.StatusAuthFailed, st)
	})

	s.Run("granted challenge reads the value", func() {
		s.granted = true
		q := query("svc", "token")
		q.ReturnValue = true
		item, st := s.store.Get(s.ctx, q)
		s.Require().Equal(credstore.StatusSuccess, st)
		s.Equal([]byte("v"), item.Value)
	})
}
