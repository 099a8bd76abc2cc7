// Package tariffio implements the tariff YAML adapter: a
// named-rule-reference import/export format sitting outside the pure
// billing computation.
package tariffio

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/raterudder/billcore/internal/types"
)

type yamlRule struct {
	Name         string `yaml:"name,omitempty"`
	PeriodStart  string `yaml:"period_start,omitempty"`
	PeriodEnd    string `yaml:"period_end,omitempty"`
	AppliesStart string `yaml:"applies_start,omitempty"`
	AppliesEnd   string `yaml:"applies_end,omitempty"`
	Weekdays     *bool  `yaml:"weekdays,omitempty"`
	Weekends     *bool  `yaml:"weekends,omitempty"`
	Holidays     *bool  `yaml:"holidays,omitempty"`
}

type yamlEnergyCharge struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	RateUSDPerKWH string   `yaml:"rate_usd_per_kwh"`
	Rules       []string   `yaml:"rules,omitempty"`
	InlineRules []yamlRule `yaml:"inline_rules,omitempty"`
}

type yamlDemandCharge struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	RateUSDPerKW string     `yaml:"rate_usd_per_kw"`
	PeakType     string     `yaml:"peak_type"`
	Rules        []string   `yaml:"rules,omitempty"`
	InlineRules  []yamlRule `yaml:"inline_rules,omitempty"`
}

type yamlCustomerCharge struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	AmountUSD  string `yaml:"amount_usd"`
	ChargeType string `yaml:"charge_type"`
}

type yamlTariff struct {
	Utility         string               `yaml:"utility"`
	Name            string               `yaml:"name"`
	EnergyCharges   []yamlEnergyCharge   `yaml:"energy_charges,omitempty"`
	DemandCharges   []yamlDemandCharge   `yaml:"demand_charges,omitempty"`
	CustomerCharges []yamlCustomerCharge `yaml:"customer_charges,omitempty"`
}

type yamlDoc struct {
	ApplicabilityRules []yamlRule   `yaml:"applicability_rules,omitempty"`
	Tariffs            []yamlTariff `yaml:"tariffs"`
}

// LoadTariffYAML decodes exactly one tariff from r. Charges may
// reference rules declared under the top-level applicability_rules key
// by name, or inline their own; duplicate names among the top-level
// rules are rejected. The resolved named rules are returned alongside
// the tariff; ExportTariffYAML does not take them and always inlines
// every charge's rules.
func LoadTariffYAML(r io.Reader) (types.Tariff, []types.ApplicabilityRule, error) {
	var doc yamlDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return types.Tariff{}, nil, types.NewError(types.KindInputValidation, "malformed tariff yaml", err)
	}
	if len(doc.Tariffs) != 1 {
		return types.Tariff{}, nil, types.NewError(types.KindInputValidation, fmt.Sprintf("expected exactly one tariff in document, found %d", len(doc.Tariffs)), nil)
	}

	named := make(map[string]types.ApplicabilityRule, len(doc.ApplicabilityRules))
	namedList := make([]types.ApplicabilityRule, 0, len(doc.ApplicabilityRules))
	for _, yr := range doc.ApplicabilityRules {
		rule, err := parseRule(yr)
		if err != nil {
			return types.Tariff{}, nil, err
		}
		if rule.Name == "" {
			return types.Tariff{}, nil, types.NewError(types.KindInputValidation, "top-level applicability_rules entries must have a name", nil)
		}
		if _, dup := named[rule.Name]; dup {
			return types.Tariff{}, nil, types.NewError(types.KindInputValidation, fmt.Sprintf("duplicate applicability rule name %q", rule.Name), nil)
		}
		named[rule.Name] = rule
		namedList = append(namedList, rule)
	}

	yt := doc.Tariffs[0]
	tariff := types.Tariff{Utility: yt.Utility, Name: yt.Name}

	for _, yc := range yt.EnergyCharges {
		rate, err := decimal.NewFromString(yc.RateUSDPerKWH)
		if err != nil {
			return types.Tariff{}, nil, types.NewError(types.KindInputValidation, fmt.Sprintf("energy charge %q: invalid rate %q", yc.ID, yc.RateUSDPerKWH), err)
		}
		rules, err := resolveRules(yc.Rules, yc.InlineRules, named)
		if err != nil {
			return types.Tariff{}, nil, err
		}
		tariff.EnergyCharges = append(tariff.EnergyCharges, types.EnergyCharge{
			ID: yc.ID, Name: yc.Name, RateUSDPerKWH: rate, Rules: rules,
		})
	}

	for _, yc := range yt.DemandCharges {
		rate, err := decimal.NewFromString(yc.RateUSDPerKW)
		if err != nil {
			return types.Tariff{}, nil, types.NewError(types.KindInputValidation, fmt.Sprintf("demand charge %q: invalid rate %q", yc.ID, yc.RateUSDPerKW), err)
		}
		rules, err := resolveRules(yc.Rules, yc.InlineRules, named)
		if err != nil {
			return types.Tariff{}, nil, err
		}
		tariff.DemandCharges = append(tariff.DemandCharges, types.DemandCharge{
			ID: yc.ID, Name: yc.Name, RateUSDPerKW: rate, PeakType: types.PeakType(yc.PeakType), Rules: rules,
		})
	}

	for _, yc := range yt.CustomerCharges {
		amount, err := decimal.NewFromString(yc.AmountUSD)
		if err != nil {
			return types.Tariff{}, nil, types.NewError(types.KindInputValidation, fmt.Sprintf("customer charge %q: invalid amount %q", yc.ID, yc.AmountUSD), err)
		}
		tariff.CustomerCharges = append(tariff.CustomerCharges, types.CustomerCharge{
			ID: yc.ID, Name: yc.Name, AmountUSD: amount, ChargeType: types.ChargeType(yc.ChargeType),
		})
	}

	if err := types.ValidateTariff(tariff); err != nil {
		return types.Tariff{}, nil, err
	}

	return tariff, namedList, nil
}

func resolveRules(names []string, inline []yamlRule, named map[string]types.ApplicabilityRule) ([]types.ApplicabilityRule, error) {
	rules := make([]types.ApplicabilityRule, 0, len(names)+len(inline))
	for _, n := range names {
		r, ok := named[n]
		if !ok {
			return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("undefined applicability rule reference %q", n), nil)
		}
		rules = append(rules, r)
	}
	for _, yr := range inline {
		r, err := parseRule(yr)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseRule(yr yamlRule) (types.ApplicabilityRule, error) {
	r := types.ApplicabilityRule{
		Name:            yr.Name,
		AppliesWeekdays: boolDefaultTrue(yr.Weekdays),
		AppliesWeekends: boolDefaultTrue(yr.Weekends),
		AppliesHolidays: boolDefaultTrue(yr.Holidays),
	}

	if yr.PeriodStart != "" || yr.PeriodEnd != "" {
		start, err := parseClock(yr.PeriodStart)
		if err != nil {
			return types.ApplicabilityRule{}, types.NewError(types.KindInputValidation, fmt.Sprintf("rule %q: invalid period_start %q", yr.Name, yr.PeriodStart), err)
		}
		end, err := parseClock(yr.PeriodEnd)
		if err != nil {
			return types.ApplicabilityRule{}, types.NewError(types.KindInputValidation, fmt.Sprintf("rule %q: invalid period_end %q", yr.Name, yr.PeriodEnd), err)
		}
		r.PeriodStartTimeLocal = start
		r.PeriodEndTimeLocal = end
	}

	if yr.AppliesStart != "" || yr.AppliesEnd != "" {
		start, err := parseMonthDay(yr.AppliesStart)
		if err != nil {
			return types.ApplicabilityRule{}, types.NewError(types.KindInputValidation, fmt.Sprintf("rule %q: invalid applies_start %q", yr.Name, yr.AppliesStart), err)
		}
		end, err := parseMonthDay(yr.AppliesEnd)
		if err != nil {
			return types.ApplicabilityRule{}, types.NewError(types.KindInputValidation, fmt.Sprintf("rule %q: invalid applies_end %q", yr.Name, yr.AppliesEnd), err)
		}
		r.AppliesStartMD = &start
		r.AppliesEndMD = &end
	}

	if err := types.ValidateApplicabilityRule(r); err != nil {
		return types.ApplicabilityRule{}, err
	}
	return r, nil
}

func boolDefaultTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// parseMonthDay parses a YYYY-MM-DD date, discarding the year: applies_start
// and applies_end describe an annual window, not a specific year.
func parseMonthDay(s string) (types.MonthDay, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return types.MonthDay{}, err
	}
	return types.MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

func formatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// formatMonthDay renders a YYYY-MM-DD date with a placeholder year, matching
// the layout parseMonthDay reads back.
func formatMonthDay(md types.MonthDay) string {
	return fmt.Sprintf("0000-%02d-%02d", int(md.Month), md.Day)
}

// ExportTariffYAML writes tariff back out with every charge's rules
// inlined, so re-importing it with LoadTariffYAML yields an equivalent
// tariff regardless of whether the source document used named
// references.
func ExportTariffYAML(w io.Writer, tariff types.Tariff) error {
	yt := yamlTariff{Utility: tariff.Utility, Name: tariff.Name}

	for _, c := range tariff.EnergyCharges {
		yt.EnergyCharges = append(yt.EnergyCharges, yamlEnergyCharge{
			ID: c.ID, Name: c.Name, RateUSDPerKWH: c.RateUSDPerKWH.String(),
			InlineRules: renderRules(c.Rules),
		})
	}
	for _, c := range tariff.DemandCharges {
		yt.DemandCharges = append(yt.DemandCharges, yamlDemandCharge{
			ID: c.ID, Name: c.Name, RateUSDPerKW: c.RateUSDPerKW.String(), PeakType: string(c.PeakType),
			InlineRules: renderRules(c.Rules),
		})
	}
	for _, c := range tariff.CustomerCharges {
		yt.CustomerCharges = append(yt.CustomerCharges, yamlCustomerCharge{
			ID: c.ID, Name: c.Name, AmountUSD: c.AmountUSD.String(), ChargeType: string(c.ChargeType),
		})
	}

	doc := yamlDoc{Tariffs: []yamlTariff{yt}}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return types.NewError(types.KindInternal, "failed to encode tariff yaml", err)
	}
	return enc.Close()
}

func renderRules(rules []types.ApplicabilityRule) []yamlRule {
	out := make([]yamlRule, 0, len(rules))
	for _, r := range rules {
		yr := yamlRule{
			Name:     r.Name,
			Weekdays: &r.AppliesWeekdays,
			Weekends: &r.AppliesWeekends,
			Holidays: &r.AppliesHolidays,
		}
		if !r.SpansEntireDay() {
			yr.PeriodStart = formatClock(r.PeriodStartTimeLocal)
			yr.PeriodEnd = formatClock(r.PeriodEndTimeLocal)
		}
		if r.AppliesStartMD != nil && r.AppliesEndMD != nil {
			yr.AppliesStart = formatMonthDay(*r.AppliesStartMD)
			yr.AppliesEnd = formatMonthDay(*r.AppliesEndMD)
		}
		out = append(out, yr)
	}
	return out
}
