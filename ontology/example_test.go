package ontology_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-digitaltwin/sensortwin/ontology"
)

const classes = `{
  "Sensor": {},
  "Temperature": {"superclass": ["Sensor"], "min": -40, "max": 85, "unitMeasure": ["C", "F"]},
  "RoomTemperature": {"superclass": ["Temperature"]},
  "Humidity": {"superclass": ["Sensor"], "min": 0, "max": 100, "unitMeasure": ["%"]}
}`

func Example() {
	m, err := ontology.Load(context.Background(), strings.NewReader(classes))
	if err != nil {
		panic(err)
	}

	fmt.Println(m.AllSuperclasses("RoomTemperature"))
	fmt.Println(m.IsSensorCompatible("Temperature", "RoomTemperature"))
	fmt.Println(m.IsSensorCompatible("Temperature", "Humidity"))
	fmt.Println(m.CompatibleSensors("Temperature"))
	// Output:
	// [Sensor Temperature]
	// true
	// false
	// [RoomTemperature Sensor Temperature]
}

func ExampleFormatHierarchy() {
	m, err := ontology.Load(context.Background(), strings.NewReader(classes))
	if err != nil {
		panic(err)
	}
	fmt.Print(ontology.FormatHierarchy(m, "\t"))
	// Output:
	// Sensor
	// 	Humidity [0, 100] %
	// 	Temperature [-40, 85] C
	// 		RoomTemperature
}

func ExampleManager_GenerateValue() {
	m := ontology.MustNew(ontology.Hierarchy{
		"Switch": {},
	}, ontology.WithSeed(1))

	_, ok := m.GenerateValue("Switch")
	fmt.Println("available:", ok)
	// Output:
	// available: false
}
