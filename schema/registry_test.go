package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop().Sugar())
}

func TestRegisterAndGet(t *testing.T) {
	r := newTestRegistry()

	s, err := r.Register("pipeline", `
class Tool:
    type: str

class App:
    tools: Optional[List[Union[Tool, Index]]]
`, "Index", "App")
	require.NoError(t, err)
	assert.Equal(t, "pipeline", s.Name)
	assert.Equal(t, []string{"Tool", "App"}, s.Order)

	got, ok := r.Get("pipeline")
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestRegisterRejectsEmptySource(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Register("empty", "no classes here", "Index", "")
	require.Error(t, err)

	// Registration is atomic: nothing was left behind
	_, ok := r.Get("empty")
	assert.False(t, ok)
}

func TestRegisterRejectsMissingRootClass(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Register("pipeline", `
class Tool:
    type: str
`, "Index", "App")
	require.Error(t, err)

	_, ok := r.Get("pipeline")
	assert.False(t, ok, "failed registration must leave no partial state")
}

func TestRemove(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Register("pipeline", "class Tool:\n    type: str\n", "Index", "")
	require.NoError(t, err)

	assert.True(t, r.Remove("pipeline"))
	assert.False(t, r.Remove("pipeline"))

	_, ok := r.Get("pipeline")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	r := newTestRegistry()
	src := "class Tool:\n    type: str\n"

	_, err := r.Register("zeta", src, "Index", "")
	require.NoError(t, err)
	_, err = r.Register("alpha", src, "Index", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}
