package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransientRead(t *testing.T) {
	p := TransientRead()
	assert.Equal(t, 5, p.MaxRetries)
	for i := 1; i <= p.MaxRetries; i++ {
		assert.Equal(t, 300*time.Millisecond, p.Delay(i), "retry %d", i)
	}
	assert.NoError(t, p.Validate())
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		n      int
		want   time.Duration
	}{
		{"no retry yet", TransientRead(), 0, 0},
		{"linear", Policy{Backoff: BackoffLinear, Initial: time.Second, Max: 10 * time.Second}, 3, 3 * time.Second},
		{"linear capped", Policy{Backoff: BackoffLinear, Initial: time.Second, Max: 2 * time.Second}, 3, 2 * time.Second},
		{"exponential", Policy{Backoff: BackoffExponential, Initial: 100 * time.Millisecond, Max: time.Second}, 3, 400 * time.Millisecond},
		{"exponential capped", Policy{Backoff: BackoffExponential, Initial: 100 * time.Millisecond, Max: time.Second}, 8, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delay(tt.n))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{}.Validate())
	assert.Error(t, Policy{Backoff: BackoffFixed, Initial: time.Second, Max: time.Millisecond}.Validate())
	assert.Error(t, Policy{Backoff: BackoffFixed, Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.Error(t, Policy{Backoff: "random", Initial: time.Second, Max: time.Second}.Validate())
	assert.NoError(t, Policy{Backoff: BackoffLinear, Initial: time.Second, Max: time.Minute}.Validate())
}
