package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"promo-data/internal/devices"
)

func TestSplitAliases(t *testing.T) {
	assert.Equal(t, []string{"iPhone 15", "S24 Ultra"}, splitAliases(" iPhone 15 ,, S24 Ultra,"))
	assert.Nil(t, splitAliases(" , "))
}

func TestPrintSummary(t *testing.T) {
	res := &devices.BatchResult{Summary: []devices.AliasSummary{
		{Alias: "iPhone 15", Status: devices.StatusFound, DevicesFound: 2},
		{Alias: "Pixel 99", Status: devices.StatusNoMapping},
	}}
	var buf bytes.Buffer
	printSummary(&buf, res)
	assert.Contains(t, buf.String(), "iPhone 15")
	assert.Contains(t, buf.String(), "found=1 no_mapping=1 no_devices=0\n")
}
