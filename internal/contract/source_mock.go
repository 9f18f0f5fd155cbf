package contract

import (
	"context"

	"github.com/huangsam/hockeystick/schema"
	"github.com/stretchr/testify/mock"
)

// MockSeriesSource is a mock implementation of SeriesSource for testing.
type MockSeriesSource struct {
	mock.Mock
}

var _ SeriesSource = &MockSeriesSource{} // Compile-time check

// FetchSeries implements the SeriesSource interface.
func (m *MockSeriesSource) FetchSeries(ctx context.Context, topic string, timeframe string) (schema.Series, error) {
	args := m.Called(ctx, topic, timeframe)
	return args.Get(0).(schema.Series), args.Error(1)
}
