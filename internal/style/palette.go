package style

// Shade names a tone of a material color
type Shade string

const (
	Base     Shade = "base"
	Lighten5 Shade = "lighten5"
	Lighten4 Shade = "lighten4"
	Lighten3 Shade = "lighten3"
	Darken4  Shade = "darken4"
	Accent1  Shade = "accent1"
	Accent2  Shade = "accent2"
	Accent3  Shade = "accent3"
	Accent4  Shade = "accent4"
)

var shadeOrder = []Shade{Base, Lighten5, Lighten4, Lighten3, Darken4, Accent1, Accent2, Accent3, Accent4}

// palette maps a material color to its hex tones. Brown, grey and blue-grey
// have no accents.
var palette = map[string]map[Shade]string{
	"red":         tones("#F44336", "#FFEBEE", "#FFCDD2", "#EF9A9A", "#B71C1C", "#FF8A80", "#FF5252", "#FF1744", "#D50000"),
	"pink":        tones("#E91E63", "#FCE4EC", "#F8BBD0", "#F48FB1", "#880E4F", "#FF80AB", "#FF4081", "#F50057", "#C51162"),
	"purple":      tones("#9C27B0", "#F3E5F5", "#E1BEE7", "#CE93D8", "#4A148C", "#EA80FC", "#E040FB", "#D500F9", "#AA00FF"),
	"deep-purple": tones("#673AB7", "#EDE7F6", "#D1C4E9", "#B39DDB", "#311B92", "#B388FF", "#7C4DFF", "#651FFF", "#6200EA"),
	"indigo":      tones("#3F51B5", "#E8EAF6", "#C5CAE9", "#9FA8DA", "#1A237E", "#8C9EFF", "#536DFE", "#3D5AFE", "#304FFE"),
	"blue":        tones("#2196F3", "#E3F2FD", "#BBDEFB", "#90CAF9", "#0D47A1", "#82B1FF", "#448AFF", "#2979FF", "#2962FF"),
	"light-blue":  tones("#03A9F4", "#E1F5FE", "#B3E5FC", "#81D4FA", "#01579B", "#80D8FF", "#40C4FF", "#00B0FF", "#0091EA"),
	"cyan":        tones("#00BCD4", "#E0F7FA", "#B2EBF2", "#80DEEA", "#006064", "#84FFFF", "#18FFFF", "#00E5FF", "#00B8D4"),
	"teal":        tones("#009688", "#E0F2F1", "#B2DFDB", "#80CBC4", "#004D40", "#A7FFEB", "#64FFDA", "#1DE9B6", "#00BFA5"),
	"green":       tones("#4CAF50", "#E8F5E9", "#C8E6C9", "#A5D6A7", "#1B5E20", "#B9F6CA", "#69F0AE", "#00E676", "#00C853"),
	"light-green": tones("#8BC34A", "#F1F8E9", "#DCEDC8", "#C5E1A5", "#33691E", "#CCFF90", "#B2FF59", "#76FF03", "#64DD17"),
	"lime":        tones("#CDDC39", "#F9FBE7", "#F0F4C3", "#E6EE9C", "#827717", "#F4FF81", "#EEFF41", "#C6FF00", "#AEEA00"),
	"yellow":      tones("#FFEB3B", "#FFFDE7", "#FFF9C4", "#FFF59D", "#F57F17", "#FFFF8D", "#FFFF00", "#FFEA00", "#FFD600"),
	"amber":       tones("#FFC107", "#FFF8E1", "#FFECB3", "#FFE082", "#FF6F00", "#FFE57F", "#FFD740", "#FFC400", "#FFAB00"),
	"orange":      tones("#FF9800", "#FFF3E0", "#FFE0B2", "#FFCC80", "#E65100", "#FFD180", "#FFAB40", "#FF9100", "#FF6D00"),
	"deep-orange": tones("#FF5722", "#FBE9E7", "#FFCCBC", "#FFAB91", "#BF360C", "#FF9E80", "#FF6E40", "#FF3D00", "#DD2C00"),
	"brown":       tones("#795548", "#EFEBE9", "#D7CCC8", "#BCAAA4", "#3E2723"),
	"blue-grey":   tones("#607D8B", "#ECEFF1", "#CFD8DC", "#B0BEC5", "#263238"),
	"grey":        tones("#9E9E9E", "#FAFAFA", "#F5F5F5", "#EEEEEE", "#212121"),
}

func tones(hex ...string) map[Shade]string {
	m := make(map[Shade]string, len(hex))
	for i, h := range hex {
		m[shadeOrder[i]] = h
	}
	return m
}

// HasColor reports whether name is a palette color
func HasColor(name string) bool {
	_, ok := palette[name]
	return ok
}

// pick returns the first shade of color present in the palette
func pick(color string, prefs []Shade) (string, bool) {
	shades, ok := palette[color]
	if !ok {
		return "", false
	}
	for _, s := range prefs {
		if hex, ok := shades[s]; ok {
			return hex, true
		}
	}
	return "", false
}
