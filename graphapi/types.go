package graphapi

import (
	"encoding/json"
)

// Pos is the canvas position of a node. It only matters to whatever draws the graph.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// it seems editors can emit either an [x, y] array or an {"x":..,"y":..} object.
// when marshaling, we'll always output as an object.
func (p *Pos) UnmarshalJSON(b []byte) error {
	// First try to unmarshal as array
	var tmpArr []float64
	if err := json.Unmarshal(b, &tmpArr); err == nil {
		for i, v := range tmpArr {
			if i == 0 {
				p.X = v
			} else if i == 1 {
				p.Y = v
			}
		}
		return nil
	}

	// If not array, try to unmarshal as map
	var tmpObj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(b, &tmpObj); err != nil {
		return err
	}
	p.X = tmpObj.X
	p.Y = tmpObj.Y
	return nil
}
