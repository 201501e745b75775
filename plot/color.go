package plot

import (
	"image/color"
	"math"

	"github.com/icza/gox/imagex/colorx"
)

// Colormap maps values onto a diverging color scale that runs from Cool at
// VMin through Mid to Hot at VMax.
type Colormap struct {
	Cool, Mid, Hot color.RGBA
	VMin, VMax     float64
}

// NewColormap parses the hex colors (such as "#2166ac") of the two ends of a
// diverging scale with a white midpoint.
func NewColormap(cool, hot string, vmin, vmax float64) (Colormap, error) {
	c, err := colorx.ParseHexColor(cool)
	if err != nil {
		return Colormap{}, err
	}
	h, err := colorx.ParseHexColor(hot)
	if err != nil {
		return Colormap{}, err
	}

	return Colormap{
		Cool: c,
		Mid:  color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Hot:  h,
		VMin: vmin,
		VMax: vmax,
	}, nil
}

// At returns the color for v. Values outside [VMin, VMax] are clipped, and
// NaN maps to the midpoint.
func (c Colormap) At(v float64) color.RGBA {
	if math.IsNaN(v) || c.VMax <= c.VMin {
		return c.Mid
	}

	t := (v - c.VMin) / (c.VMax - c.VMin)
	t = math.Max(0, math.Min(1, t))

	if t < 0.5 {
		return lerp(c.Cool, c.Mid, t*2)
	}
	return lerp(c.Mid, c.Hot, (t-0.5)*2)
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
