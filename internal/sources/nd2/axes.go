package nd2

import (
	"fmt"
	"sort"
)

// LoopType identifies an experiment loop.
type LoopType int

const (
	LoopUnknown    LoopType = 0
	LoopTime       LoopType = 1
	LoopXYPos      LoopType = 2
	LoopXYDiscrete LoopType = 3
	LoopZStack     LoopType = 4
	LoopPolar      LoopType = 5
	LoopSpectral   LoopType = 6
	LoopCustom     LoopType = 7
	LoopNETime     LoopType = 8
)

// Axis names.
const (
	AxisTime     = "T"
	AxisPosition = "P"
	AxisZ        = "Z"
	AxisChannel  = "C"
	AxisY        = "Y"
	AxisX        = "X"
	AxisSample   = "S"
)

var loopAxes = map[LoopType]string{
	LoopTime:       AxisTime,
	LoopNETime:     AxisTime,
	LoopXYPos:      AxisPosition,
	LoopXYDiscrete: AxisPosition,
	LoopZStack:     AxisZ,
}

// Loop is one level of the experiment.
type Loop struct {
	Type  LoopType
	Count int
}

// axes derives the axis layout. Experiment loops come first, outermost
// loop first, followed by channel, Y, X and per-channel samples. Axes of
// extent one are dropped except for Y and X.
func axes(attrs, experiment, picture map[string]any) (map[string]int, []string, error) {
	ia := getMap(attrs, "SLxImageAttributes")
	if ia == nil {
		return nil, nil, fmt.Errorf("%w: %s has no SLxImageAttributes", ErrChunkNotFound, chunkAttributes)
	}
	width, okW := getInt(ia, "uiWidth")
	height, okH := getInt(ia, "uiHeight")
	if !okW || !okH {
		return nil, nil, fmt.Errorf("%w: image attributes lack uiWidth/uiHeight", ErrUnsupported)
	}
	comp, ok := getInt(ia, "uiComp")
	if !ok || comp < 1 {
		comp = 1
	}
	seqCount, _ := getInt(ia, "uiSequenceCount")

	sizes := make(map[string]int)
	var order []string
	put := func(axis string, n int) error {
		if _, dup := sizes[axis]; dup {
			return fmt.Errorf("%w: axis %s appears twice", ErrUnsupported, axis)
		}
		sizes[axis] = n
		order = append(order, axis)
		return nil
	}

	loops, err := experimentLoops(experiment)
	if err != nil {
		return nil, nil, err
	}
	for _, l := range loops {
		if l.Count <= 1 {
			continue
		}
		axis, known := loopAxes[l.Type]
		if !known {
			return nil, nil, fmt.Errorf("%w: loop type %d", ErrUnsupported, l.Type)
		}
		if err := put(axis, l.Count); err != nil {
			return nil, nil, err
		}
	}
	if len(order) == 0 && seqCount > 1 {
		if err := put(AxisTime, seqCount); err != nil {
			return nil, nil, err
		}
	}

	channels := 1
	if planes := getMap(getMap(picture, "SLxPictureMetadata"), "sPicturePlanes"); planes != nil {
		if n, ok := getInt(planes, "uiCount"); ok && n > 0 {
			channels = n
		}
	}
	samples := max(comp/channels, 1)

	if channels > 1 {
		if err := put(AxisChannel, channels); err != nil {
			return nil, nil, err
		}
	}
	if err := put(AxisY, height); err != nil {
		return nil, nil, err
	}
	if err := put(AxisX, width); err != nil {
		return nil, nil, err
	}
	if samples > 1 {
		if err := put(AxisSample, samples); err != nil {
			return nil, nil, err
		}
	}
	return sizes, order, nil
}

// experimentLoops flattens the nested experiment, outermost first.
func experimentLoops(experiment map[string]any) ([]Loop, error) {
	var loops []Loop
	level := getMap(experiment, "SLxExperiment")
	for depth := 0; level != nil; depth++ {
		if depth > maxVariantDepth {
			return nil, fmt.Errorf("experiment nesting deeper than %d", maxVariantDepth)
		}
		t, ok := getInt(level, "uiLoopType")
		if !ok {
			break
		}
		loops = append(loops, Loop{Type: LoopType(t), Count: loopCount(level, LoopType(t))})
		level = firstChild(getMap(level, "ppNextLevelEx"))
	}
	return loops, nil
}

func loopCount(level map[string]any, t LoopType) int {
	pars := getMap(level, "uLoopPars")
	count, ok := getInt(pars, "uiCount")
	if t == LoopNETime {
		if periods := getMap(pars, "pPeriod"); periods != nil {
			count = 0
			for _, p := range periods {
				if pm, ok := p.(map[string]any); ok {
					n, _ := getInt(pm, "uiCount")
					count += n
				}
			}
			ok = true
		}
	}
	if !ok {
		if points := getMap(pars, "Points"); points != nil {
			count = len(points)
		}
	}
	if valid, ok := level["pItemValid"].([]byte); ok && len(valid) == count {
		count = 0
		for _, v := range valid {
			if v != 0 {
				count++
			}
		}
	}
	return count
}

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// firstChild returns the nested level with the lowest name.
func firstChild(m map[string]any) map[string]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if child, ok := m[k].(map[string]any); ok {
			return child
		}
	}
	return nil
}

func getInt(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case uint32:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
