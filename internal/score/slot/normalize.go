package slot

import "math"

// Normalize linearly maps value from [inMin,inMax] onto [outMin,outMax] and
// clamps the result to the output range.
func Normalize(value, inMin, inMax, outMin, outMax float64) float64 {
	mapped := ((value-inMin)/(inMax-inMin))*(outMax-outMin) + outMin
	return math.Max(outMin, math.Min(outMax, mapped))
}
