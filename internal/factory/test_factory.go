package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/mocks"
	"github.com/Yuqi1124/TownRecord/internal/services/registry"
	"github.com/Yuqi1124/TownRecord/internal/storage/memory"
	"github.com/Yuqi1124/TownRecord/internal/testutil"
)

// TestTownCapacity is the player limit of towns created by a TestApp
const TestTownCapacity = 3

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockVideo  *mocks.MockVideoIssuer
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockVideo := mocks.NewMockVideoIssuer()

	registryCfg := registry.Config{TownCapacity: TestTownCapacity, PasswordCost: bcrypt.MinCost}

	app := newWithDependencies(store, mockClock, mockRandom, mockVideo, registryCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockVideo:  mockVideo,
	}
}
