// Package packsize normalizes free-text pack-size descriptions into
// comparable size/unit/configuration values.
package packsize

import "strings"

// Canonical unit classes. Volume is folded into the mass class so that
// "500ml" and "500g" listings compare on the same scale, and tablet/capsule
// counts fold into the pack class.
const (
	UnitMass    = "g"
	UnitPack    = "pk"
	UnitLength  = "m"
	UnitVoltage = "v"
	UnitPower   = "w"
	UnitFlOz    = "floz"
)

type unitInfo struct {
	class  string
	factor float64
}

// unitTable maps raw unit tokens to their class and the multiplier that
// brings a value into the class base unit.
var unitTable = map[string]unitInfo{
	// mass
	"g":     {UnitMass, 1},
	"gm":    {UnitMass, 1},
	"gr":    {UnitMass, 1},
	"gram":  {UnitMass, 1},
	"grams": {UnitMass, 1},
	"kg":    {UnitMass, 1000},
	"kgs":   {UnitMass, 1000},
	"kilo":  {UnitMass, 1000},
	"mg":    {UnitMass, 0.001},

	// volume, folded into the mass class for comparison
	"ml":     {UnitMass, 1},
	"mls":    {UnitMass, 1},
	"l":      {UnitMass, 1000},
	"lt":     {UnitMass, 1000},
	"ltr":    {UnitMass, 1000},
	"litre":  {UnitMass, 1000},
	"litres": {UnitMass, 1000},
	"liter":  {UnitMass, 1000},
	"liters": {UnitMass, 1000},
	"cl":     {UnitMass, 10},

	// count / pack
	"pk":       {UnitPack, 1},
	"pack":     {UnitPack, 1},
	"packs":    {UnitPack, 1},
	"pc":       {UnitPack, 1},
	"pcs":      {UnitPack, 1},
	"piece":    {UnitPack, 1},
	"pieces":   {UnitPack, 1},
	"each":     {UnitPack, 1},
	"ea":       {UnitPack, 1},
	"s":        {UnitPack, 1},
	"ct":       {UnitPack, 1},
	"count":    {UnitPack, 1},
	"pair":     {UnitPack, 1},
	"pairs":    {UnitPack, 1},
	"tablet":   {UnitPack, 1},
	"tablets":  {UnitPack, 1},
	"tab":      {UnitPack, 1},
	"tabs":     {UnitPack, 1},
	"capsule":  {UnitPack, 1},
	"capsules": {UnitPack, 1},
	"cap":      {UnitPack, 1},
	"caps":     {UnitPack, 1},

	// length
	"m":      {UnitLength, 1},
	"metre":  {UnitLength, 1},
	"metres": {UnitLength, 1},
	"meter":  {UnitLength, 1},
	"meters": {UnitLength, 1},
	"cm":     {UnitLength, 0.01},
	"mm":     {UnitLength, 0.001},

	// electrical
	"v":     {UnitVoltage, 1},
	"volt":  {UnitVoltage, 1},
	"volts": {UnitVoltage, 1},
	"w":     {UnitPower, 1},
	"watt":  {UnitPower, 1},
	"watts": {UnitPower, 1},

	// fluid ounces
	"floz": {UnitFlOz, 1},
	"oz":   {UnitFlOz, 1},
	"fl":   {UnitFlOz, 1},
}

// NormalizeUnit maps a free-text unit token to its canonical class code.
// Unknown tokens default to the pack class, so the function is total.
func NormalizeUnit(token string) string {
	class, _ := unitClass(token)
	return class
}

// unitClass returns the class code and base-unit multiplier for a token.
func unitClass(token string) (string, float64) {
	if info, ok := unitTable[strings.ToLower(strings.TrimSpace(token))]; ok {
		return info.class, info.factor
	}
	return UnitPack, 1
}
