package beat_test

import (
	"fmt"

	"github.com/matzehuels/scorealign/pkg/beat"
)

func ExampleIndexToMeasure() {
	p := beat.IndexToMeasure(17, 3)
	fmt.Println(p.MeasureNumber, p.BeatInMeasure)
	// Output: 6 2
}
