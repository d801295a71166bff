package raster

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadASCIIGrid reads an ESRI ASCII grid file into a Grid. The header keys
// ncols, nrows, cellsize and either xllcorner/yllcorner or
// xllcenter/yllcenter are required; nodata_value is optional. Rows in the
// file run north to south, matching the Grid row order.
func ReadASCIIGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DEM grid: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := map[string]float64{}
	var rows [][]float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 2 && !isNumeric(fields[0]) {
			value, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid header value for %s: %w", fields[0], err)
			}
			header[strings.ToLower(fields[0])] = value
			continue
		}

		row := make([]float64, 0, len(fields))
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid elevation value %q: %w", field, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading DEM grid: %w", err)
	}

	ncols, ok := header["ncols"]
	if !ok {
		return nil, fmt.Errorf("DEM grid header missing ncols")
	}
	nrows, ok := header["nrows"]
	if !ok {
		return nil, fmt.Errorf("DEM grid header missing nrows")
	}
	cellsize, ok := header["cellsize"]
	if !ok || cellsize <= 0 {
		return nil, fmt.Errorf("DEM grid header missing or invalid cellsize")
	}

	// Corner-registered headers reference the outer edge of the lower-left
	// cell; center-registered headers reference its center.
	var x0, y0 float64
	if xc, ok := header["xllcenter"]; ok {
		x0 = xc
	} else if xll, ok := header["xllcorner"]; ok {
		x0 = xll + cellsize/2
	} else {
		return nil, fmt.Errorf("DEM grid header missing xllcorner/xllcenter")
	}
	if yc, ok := header["yllcenter"]; ok {
		y0 = yc
	} else if yll, ok := header["yllcorner"]; ok {
		y0 = yll + cellsize/2
	} else {
		return nil, fmt.Errorf("DEM grid header missing yllcorner/yllcenter")
	}

	nc, nr := int(ncols), int(nrows)
	if len(rows) != nr {
		return nil, fmt.Errorf("DEM grid has %d data rows, header declares %d", len(rows), nr)
	}

	nodata, hasNodata := header["nodata_value"]
	for _, row := range rows {
		if len(row) != nc {
			return nil, fmt.Errorf("DEM grid row has %d values, header declares %d", len(row), nc)
		}
		if hasNodata {
			for i, v := range row {
				if v == nodata {
					row[i] = math.NaN()
				}
			}
		}
	}

	grid := &Grid{
		X:          make([]float64, nc),
		Y:          make([]float64, nr),
		Z:          rows,
		Resolution: cellsize,
	}

	for i := 0; i < nc; i++ {
		grid.X[i] = x0 + float64(i)*cellsize
	}
	// File rows run north to south; Y[0] is the northernmost center.
	for j := 0; j < nr; j++ {
		grid.Y[j] = y0 + float64(nr-1-j)*cellsize
	}

	return grid, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
