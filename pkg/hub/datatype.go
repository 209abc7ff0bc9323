package hub

import (
	"fmt"
	"strings"
)

// DataType is the CSI-2 data type code carried in RegCSI.
type DataType uint8

const (
	DataTypeRGB888    DataType = 0
	DataTypeRGB565    DataType = 1
	DataTypeRGB555    DataType = 2
	DataTypeYUV422_8  DataType = 3
	DataTypeYUV422_10 DataType = 4
	DataTypeRAW8      DataType = 5
	DataTypeRAW10     DataType = 6
	DataTypeRAW11     DataType = 7
	DataTypeRAW14     DataType = 8
	DataTypeUser24    DataType = 9
	DataTypeUserYUV12 DataType = 10
	DataTypeUser8     DataType = 11
	dataTypeLast               = DataTypeUser8
)

var dataTypeNames = [...]string{
	DataTypeRGB888:    "rgb888",
	DataTypeRGB565:    "rgb565",
	DataTypeRGB555:    "rgb555",
	DataTypeYUV422_8:  "yuv422-8bit",
	DataTypeYUV422_10: "yuv422-10bit",
	DataTypeRAW8:      "raw8",
	DataTypeRAW10:     "raw10",
	DataTypeRAW11:     "raw11",
	DataTypeRAW14:     "raw14",
	DataTypeUser24:    "user-24bit",
	DataTypeUserYUV12: "user-yuv-12bit",
	DataTypeUser8:     "user-8bit",
}

// String returns the data type name.
func (d DataType) String() string {
	if d > dataTypeLast {
		return fmt.Sprintf("DataType(%d)", uint8(d))
	}
	return dataTypeNames[d]
}

// ParseDataType parses a data type name, case-insensitively.
func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(s)
	for i, n := range dataTypeNames {
		if n == s {
			return DataType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown data type %q", ErrInvalidConfig, s)
}
