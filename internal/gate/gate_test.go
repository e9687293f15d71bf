package gate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"biovault/internal/biometry"
	"biovault/internal/biometry/mocks"
	"biovault/internal/credstore"
	dErrors "biovault/pkg/domain-errors"
	"biovault/pkg/platform/sentinel"
)

type GateSuite struct {
	suite.Suite
	ctx  context.Context
	cred *credstore.Memory
	eval *biometry.Fake
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	s.cred = credstore.NewMemory(credstore.WithAuthorizer(func(context.Context) bool {
		return true
	}))
	s.eval = biometry.NewFake()
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) newFacade() *Facade {
	return New(s.cred, s.eval, Config{
		Service:             "com.example.app",
		Label:               "example",
		BiometricPreference: true,
		Policy:              biometry.PolicyBiometrics,
	})
}

func (s *GateSuite) TestLifecycle() {
	f := s.newFacade()
	defer f.Close()

	s.Require().NoError(<-f.SetValue(s.ctx, "token", []byte("abc123")))

	got := <-f.GetString(s.ctx, "token")
	s.Require().NoError(got.Err)
	s.True(got.Found)
	s.Equal("abc123", got.Value)

	s.Require().NoError(<-f.Remove(s.ctx, "token"))

	got = <-f.GetString(s.ctx, "token")
	s.Require().NoError(got.Err)
	s.False(got.Found)
	s.Empty(got.Value)
}

func (s *GateSuite) TestGetValueBytes() {
	f := s.newFacade()
	defer f.Close()

	raw := []byte{0x01, 0xff, 0x02}
	s.Require().NoError(<-f.SetValue(s.ctx, "blob", raw))

	got := <-f.GetValue(s.ctx, "blob")
	s.Require().NoError(got.Err)
	s.True(got.Found)
	s.Equal(raw, got.Value)

	s.Run("same bytes are not valid text", func() {
		text := <-f.GetString(s.ctx, "blob")
		s.Require().NoError(text.Err)
		s.False(text.Found)
	})
}

func (s *GateSuite) TestSequentialOverwritesKeepTheLastValue() {
	f := s.newFacade()
	defer f.Close()

	var results []<-chan error
	for i := 0; i < 10; i++ {
		results = append(results, f.SetValue(s.ctx, "token", []byte(fmt.Sprintf("v%d", i))))
	}
	for _, ch := range results {
		s.Require().NoError(<-ch)
	}

	got := <-f.GetString(s.ctx, "token")
	s.Require().NoError(got.Err)
	s.Equal("v9", got.Value)
}

func (s *GateSuite) TestConcurrentWritesAllSucceed() {
	f := s.newFacade()
	defer f.Close()

	// Submission order across goroutines is unspecified; what the worker
	// guarantees is that no write interleaves with another and every result
	// resolves. The final value must be one of the submitted ones.
	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.NoError(<-f.SetValue(s.ctx, "token", []byte(fmt.Sprintf("v%d", i))))
		}(i)
	}
	wg.Wait()

	got := <-f.GetString(s.ctx, "token")
	s.Require().NoError(got.Err)
	s.Require().True(got.Found)
	s.Regexp(`^v\d+$`, got.Value)
}

func (s *GateSuite) TestConfiguredWritesLeaveMarker() {
	f := s.newFacade()
	defer f.Close()

	s.Require().NoError(<-f.SetValue(s.ctx, "token", []byte("v")))

	check := <-f.CheckValidation(s.ctx)
	s.Require().NoError(check.Err)
	s.True(check.Present)
}

func (s *GateSuite) TestUnconfiguredWritesSkipTheGate() {
	s.eval.SetNotEnrolled()
	f := s.newFacade()
	defer f.Close()

	s.Require().NoError(<-f.SetValue(s.ctx, "token", []byte("v")))

	check := <-f.CheckValidation(s.ctx)
	s.Require().NoError(check.Err)
	s.False(check.Present, "ungated write must not record enrollment evidence")
}

func (s *GateSuite) TestPreferenceOffSkipsTheGate() {
	f := New(s.cred, s.eval, Config{
		Service: "com.example.app",
		Label:   "example",
		Policy:  biometry.PolicyBiometrics,
	})
	defer f.Close()

	s.Require().NoError(<-f.SetValue(s.ctx, "token", []byte("v")))

	check := <-f.CheckValidation(s.ctx)
	s.Require().NoError(check.Err)
	s.False(check.Present)
}

func (s *GateSuite) TestAvailabilityResolvedFreshPerCall() {
	f := s.newFacade()
	defer f.Close()

	s.Require().NoError(<-f.SetValue(s.ctx, "a", []byte("1")))
	queriesAfterFirst := s.eval.Queries()
	s.Require().NoError(<-f.SetValue(s.ctx, "b", []byte("2")))

	s.Equal(queriesAfterFirst+1, s.eval.Queries(), "each call must consult the evaluator again")

	s.Run("a state change takes effect on the next call", func() {
		s.Equal(biometry.Configured, f.Availability())
		s.eval.SetNoHardware()
		s.Equal(biometry.Unavailable, f.Availability())
	})
}

func (s *GateSuite) TestClosedFacadeResolvesImmediately() {
	f := s.newFacade()
	f.Close()
	f.Close() // idempotent

	err := <-f.SetValue(s.ctx, "token", []byte("v"))
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrClosed)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	got := <-f.GetValue(s.ctx, "token")
	s.ErrorIs(got.Err, sentinel.ErrClosed)

	text := <-f.GetString(s.ctx, "token")
	s.ErrorIs(text.Err, sentinel.ErrClosed)

	s.ErrorIs(<-f.Remove(s.ctx, "token"), sentinel.ErrClosed)

	check := <-f.CheckValidation(s.ctx)
	s.ErrorIs(check.Err, sentinel.ErrClosed)
}

func (s *GateSuite) TestCancelledContextResolvesWithoutRunning() {
	f := s.newFacade()
	defer f.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := <-f.SetValue(ctx, "token", []byte("v"))
	s.Require().Error(err)
	s.ErrorIs(err, context.Canceled)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	got := <-f.GetValue(s.ctx, "token")
	s.Require().NoError(got.Err)
	s.False(got.Found, "cancelled write must not have run")
}

func (s *GateSuite) TestCloseDrainsPendingWork() {
	f := s.newFacade()

	var results []<-chan error
	for i := 0; i < 20; i++ {
		results = append(results, f.SetValue(s.ctx, fmt.Sprintf("k%d", i), []byte("v")))
	}
	f.Close()

	for _, ch := range results {
		s.Require().NoError(<-ch, "work submitted before Close must still complete")
	}
}

func TestAvailabilityWithMockEvaluator(t *testing.T) {
	ctrl := gomock.NewController(t)
	eval := mocks.NewMockEvaluator(ctrl)
	eval.EXPECT().CanEvaluate(biometry.PolicyDeviceOwner).Return(true, nil)
	eval.EXPECT().CanEvaluate(biometry.PolicyDeviceOwner).
		Return(false, biometry.NewError(biometry.ReasonPasscodeNotSet, "no passcode"))

	f := New(credstore.NewMemory(), eval, Config{
		Service: "com.example.app",
		Policy:  biometry.PolicyDeviceOwner,
	})
	defer f.Close()

	if got := f.Availability(); got != biometry.Configured {
		t.Fatalf("availability = %v, want Configured", got)
	}
	if got := f.Availability(); got != biometry.Unavailable {
		t.Fatalf("availability = %v, want Unavailable", got)
	}
}
