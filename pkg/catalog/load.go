package catalog

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	columnID            = "optionId"
	columnTitle         = "title"
	columnFamily        = "family"
	columnStandard      = "isStandardEquipment"
	columnSelected      = "isSelected"
	columnEquipmentType = "equipmentType"
)

// ReadOptions decodes the flattened option table exported from a
// captured configurator session. Only the columns the model needs are
// read; any others are ignored.
func ReadOptions(r io.Reader) ([]Option, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading option table header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	if _, ok := index[columnID]; !ok {
		return nil, errors.Errorf("option table has no %q column", columnID)
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var options []Option
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading option table line %d", line)
		}
		id := field(record, columnID)
		if id == "" {
			continue
		}
		options = append(options, Option{
			ID:            id,
			Title:         field(record, columnTitle),
			Group:         field(record, columnFamily),
			EquipmentType: field(record, columnEquipmentType),
			Default:       parseFlag(field(record, columnStandard)),
			Selected:      parseFlag(field(record, columnSelected)),
		})
	}
	return options, nil
}

// parseFlag accepts the Python-style "True"/"False" the exporter
// writes as well as anything strconv understands.
func parseFlag(s string) bool {
	b, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && b
}

// ReadSeeds decodes a JSON array of option identifier arrays.
func ReadSeeds(r io.Reader) ([][]string, error) {
	var seeds [][]string
	if err := json.NewDecoder(r).Decode(&seeds); err != nil {
		return nil, errors.Wrap(err, "decoding seed states")
	}
	return seeds, nil
}

// Load reads the option table and, when seedsPath is not empty, the
// seed states, and returns the resulting Catalog.
func Load(optionsPath, seedsPath string) (*Catalog, error) {
	f, err := os.Open(optionsPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening option table")
	}
	defer f.Close()
	options, err := ReadOptions(f)
	if err != nil {
		return nil, errors.Wrap(err, optionsPath)
	}

	var seeds [][]string
	if seedsPath != "" {
		sf, err := os.Open(seedsPath)
		if err != nil {
			return nil, errors.Wrap(err, "opening seed states")
		}
		defer sf.Close()
		if seeds, err = ReadSeeds(sf); err != nil {
			return nil, errors.Wrap(err, seedsPath)
		}
	}
	return New(options, seeds)
}
