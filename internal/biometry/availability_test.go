package biometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
		err  error
		want Availability
	}{
		{"affirmative answer", true, nil, Configured},
		{"no hardware", false, NewError(ReasonNoHardware, ""), Unavailable},
		{"no passcode", false, NewError(ReasonPasscodeNotSet, ""), Unavailable},
		{"not enrolled", false, NewError(ReasonNotEnrolled, ""), Available},
		{"lockout", false, NewError(ReasonLockout, ""), Available},
		{"unknown reason", false, NewError(ReasonUnknown, ""), Available},
		{"negative without reason", false, nil, Available},
		{"negative with foreign error", false, errors.New("boom"), Available},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := NewFake()
			fake.SetAnswer(tc.ok, tc.err)
			assert.Equal(t, tc.want, Resolve(fake, PolicyBiometrics))
		})
	}
}

func TestResolveQueriesFreshEveryTime(t *testing.T) {
	fake := NewFake()
	fake.SetNotEnrolled()
	assert.Equal(t, Available, Resolve(fake, PolicyBiometrics))

	fake.SetEnrolled()
	assert.Equal(t, Configured, Resolve(fake, PolicyBiometrics))
	assert.Equal(t, 2, fake.Queries())
}

func TestAvailabilityString(t *testing.T) {
	assert.Equal(t, "unavailable", Unavailable.String())
	assert.Equal(t, "available", Available.String())
	assert.Equal(t, "configured", Configured.String())
}
