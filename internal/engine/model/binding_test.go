package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/glscene/internal/engine/gpu"
	"github.com/Faultbox/glscene/internal/engine/gpu/gputest"
)

func bindCall(unit int, id gpu.TextureID) string { return fmt.Sprintf("bind %d %d", unit, id) }

func drawCall(vao uint32, count int) string { return fmt.Sprintf("draw %d %d", vao, count) }

func TestPlanCountsPerKind(t *testing.T) {
	textures := []*Texture{
		{ID: 10, Kind: KindDiffuse},
		{ID: 11, Kind: KindSpecular},
		{ID: 12, Kind: KindDiffuse},
		{ID: 13, Kind: KindNormal},
		{ID: 14, Kind: KindSpecular},
	}

	plan := DefaultBindings().Plan(textures)

	var got []string
	for _, b := range plan {
		got = append(got, fmt.Sprintf("%d:%s:%d", b.Unit, b.Sampler, b.Texture.ID))
	}
	assert.Equal(t, []string{
		"0:texture_diffuse0:10",
		"1:texture_specular0:11",
		"2:texture_diffuse1:12",
		"3:texture_normal0:13",
		"4:texture_specular1:14",
	}, got)
}

func TestPlanSkipsUnboundKinds(t *testing.T) {
	table := BindingTable{KindDiffuse: "albedo"}
	plan := table.Plan([]*Texture{
		{ID: 1, Kind: KindSpecular},
		{ID: 2, Kind: KindDiffuse},
	})

	assert.Equal(t, []TextureBinding{{Unit: 0, Sampler: "albedo0", Texture: &Texture{ID: 2, Kind: KindDiffuse}}}, plan)
}

func TestPlanEmpty(t *testing.T) {
	assert.Empty(t, DefaultBindings().Plan(nil))
}

func TestApplyFallbackCoversUnsetKinds(t *testing.T) {
	dev := gputest.New()
	shader := gputest.NewShader()
	table := BindingTable{KindDiffuse: "albedo", KindSpecular: "spec", KindNormal: "normals"}

	table.ApplyFallback(dev, shader, []*Texture{{ID: 7, Kind: KindSpecular}}, 99)

	assert.Equal(t, []string{"int spec0 0", "int albedo0 1", "int normals0 1"}, shader.Log)
	assert.Equal(t, []string{bindCall(0, 7), bindCall(1, 99)}, dev.Calls)
}

func TestApplyFallbackNothingUnset(t *testing.T) {
	dev := gputest.New()
	shader := gputest.NewShader()
	table := BindingTable{KindDiffuse: "albedo"}

	table.ApplyFallback(dev, shader, []*Texture{{ID: 3, Kind: KindDiffuse}}, 99)

	assert.Equal(t, []string{bindCall(0, 3)}, dev.Calls)
}

func TestApplyWithoutFallbackLeavesUnsetSamplers(t *testing.T) {
	dev := gputest.New()
	shader := gputest.NewShader()

	DefaultBindings().Apply(dev, shader, nil)

	assert.Empty(t, dev.Calls)
	assert.Empty(t, shader.Log)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "specular", KindSpecular.String())
	assert.Equal(t, "unknown", TextureKind(42).String())
}
