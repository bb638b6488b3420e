package h5

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	converter "github.com/zdc-run4/converter_go/pkg"
)

const STRLEN = 8

// Row types of the output tables. Field order is the column order.
type EventHDF5 struct {
	track_id int32
	energy   float64
	n_hits   int32
	rejected int32
	em_seg   [converter.NumEMSegments]float64
	had_seg  [converter.NumHADSegments]float64
}

type HitHDF5 struct {
	track_id     int32
	module       int32
	channel      int32
	row          int32
	column       int32
	total_row    int32
	total_column int32
	segment      int32
}

type ModuleHDF5 struct {
	name                [STRLEN]byte
	rods_per_row        int32
	rows                int32
	rods_per_gap        int32
	row_offset          int32
	total_row_offset    int32
	total_column_offset int32
}

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &converter.ErrCreateTable{TableName: groupName, Err: err}
	}
	return g, nil
}

// createTable creates an extendible one-dimensional table whose rows have
// the compound type of datatype.
func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &converter.ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &converter.ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &converter.ErrCreateTable{TableName: name, Err: err}
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, &converter.ErrCreateTable{TableName: name, Err: err}
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &converter.ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &converter.ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, rowCounter int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, rowCounter)
}

// writeArrayToTable appends data after the first rowCounter rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowCounter int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(rowCounter)
	newsize := []uint{rowsInFile + length}
	if err := dataset.Resize(newsize); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting rows: %w", err)
	}

	return dataset.WriteSubset(data, dataspace, filespace)
}
