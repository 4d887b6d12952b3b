package layout_test

import (
	"fmt"

	"github.com/matzehuels/scorealign/pkg/layout"
)

func ExamplePartition() {
	labels := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	st := layout.Partition(labels, layout.Options{ContainerWidth: 800, MinMeasureWidth: 200})
	for _, sys := range st.Systems() {
		fmt.Println(sys.Label())
	}
	// Output:
	// System 1 - measures 1 to 4
	// System 2 - measures 5 to 8
	// System 3 - measures 9 to 9
}

func ExampleLayoutState_AdjustSystemMeasures() {
	st := layout.Partition([]int{1, 2, 3, 4, 5, 6, 7, 8, 9}, layout.Options{ContainerWidth: 800, MinMeasureWidth: 200})
	adj := st.AdjustSystemMeasures(0)
	fmt.Println(adj.Outcome, st.Sizes())
	// Output: rippled [3 4 2]
}
