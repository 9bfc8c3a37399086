package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/codevision/internal/config"
	"github.com/rohankatakam/codevision/internal/diagram"
	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/render"
	"github.com/rohankatakam/codevision/internal/store"
)

const modelsSource = `class BaseModel:
    def save(self):
        pass


class UserModel(BaseModel):
    name = ""
`

const mainSource = `from models import User
import requests


def main():
    pass
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "shop")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.py"), []byte(modelsSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte(mainSource), 0644))
	return dir
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()

	cfg := config.Default()
	cfg.Extract.Workers = 2
	cfg.Render.Binary = filepath.Join(t.TempDir(), "missing-dot")
	cfg.Render.Timeout = time.Second
	cfg.Render.ScratchDir = t.TempDir()

	svc, err := NewService(cfg, store.NewMemoryStore(4, time.Hour, logger), logger)
	require.NoError(t, err)
	return svc
}

func TestService_AnalyzeAndDiagram(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	dir := writeProject(t)

	a, err := svc.Analyze(ctx, "", dir)
	require.NoError(t, err)
	assert.Equal(t, "shop", a.ProjectID)
	assert.Equal(t, 2, a.Stats.FilesParsed)
	assert.Len(t, a.Graph.Classes, 2)

	t.Run("class view", func(t *testing.T) {
		b, err := svc.Diagram(ctx, "shop", "class")
		require.NoError(t, err)
		assert.Contains(t, b.PlantUMLText, `"BaseModel" <|-- "UserModel"`)
		require.Len(t, b.JSON.Edges, 1)
		assert.Equal(t, "BaseModel", b.JSON.Edges[0].Source)
		assert.Equal(t, "UserModel", b.JSON.Edges[0].Target)
	})

	t.Run("dependency view", func(t *testing.T) {
		b, err := svc.Diagram(ctx, "shop", "dependency")
		require.NoError(t, err)
		assert.Equal(t, diagram.KindDependency, b.Type)
		assert.Contains(t, b.PlantUMLText, `"main" --> "models"`)
		assert.Contains(t, b.PlantUMLText, `"main" ..> "requests"`)
		assert.Equal(t, 2, b.EdgeCount)
	})

	t.Run("unknown kind falls back to class", func(t *testing.T) {
		b, err := svc.Diagram(ctx, "shop", "sequence")
		require.NoError(t, err)
		assert.Equal(t, diagram.KindClass, b.Type)
	})

	t.Run("render without layout executable", func(t *testing.T) {
		out, ok, err := svc.Render(ctx, "shop", "class", render.FormatSVG)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, out)

		encoded, ok, err := svc.RenderBase64(ctx, "shop", "class", render.FormatPNG)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, encoded)
	})
}

func TestService_ProjectsAndForget(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	dir := writeProject(t)

	_, err := svc.Analyze(ctx, "beta", dir)
	require.NoError(t, err)
	_, err = svc.Analyze(ctx, "alpha", dir)
	require.NoError(t, err)

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].ProjectID)
	assert.Equal(t, 2, projects[0].Classes)

	require.NoError(t, svc.Forget(ctx, "alpha"))
	_, err = svc.Diagram(ctx, "alpha", "class")
	require.Error(t, err)
	assert.Equal(t, cverrors.ErrorTypeValidation, cverrors.GetType(err))
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Diagram(ctx, "never-analyzed", "class")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never-analyzed")

	_, _, err = svc.Render(ctx, "never-analyzed", "class", render.FormatSVG)
	assert.Error(t, err)

	_, err = svc.Analyze(ctx, "ghost", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestProjectID(t *testing.T) {
	assert.Equal(t, "shop", ProjectID("/srv/code/shop"))
	assert.Equal(t, "shop", ProjectID("/srv/code/shop/"))
}

func TestNewService_InvalidGlob(t *testing.T) {
	cfg := config.Default()
	cfg.Extract.ExcludeGlobs = []string{"[bad"}
	_, err := NewService(cfg, store.NewMemoryStore(1, 0, nil), nil)
	assert.Error(t, err)
}
