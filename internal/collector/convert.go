package collector

import (
	"kis-swingbot/pkg/numeric"
	"kis-swingbot/pkg/types"
)

// The broker reports every value as a string; pkg/numeric tolerates
// the commas, blanks, and unit suffixes that appear in practice.

func barFromChartRow(code string, row map[string]string) types.PriceBar {
	return types.PriceBar{
		Code:      code,
		Date:      row["stck_bsop_date"],
		Open:      numeric.Int(row["stck_oprc"]),
		High:      numeric.Int(row["stck_hgpr"]),
		Low:       numeric.Int(row["stck_lwpr"]),
		Close:     numeric.Int(row["stck_clpr"]),
		Volume:    numeric.Int64(row["acml_vol"]),
		Turnover:  numeric.Decimal(row["acml_tr_pbmn"]),
		PrevDelta: numeric.Int(row["prdy_vrss"]),
		PrevSign:  row["prdy_vrss_sign"],
	}
}

func snapshotFromQuote(code string, q map[string]string) types.EquitySnapshot {
	return types.EquitySnapshot{
		Code:       code,
		Industry:   q["bstp_kor_isnm"],
		StatusCode: q["iscd_stat_cls_code"],

		RefPrice:         numeric.Int(q["stck_sdpr"]),
		WeightedAvgPrice: numeric.Float(q["wghn_avrg_stck_prc"]),
		CeilingPrice:     numeric.Int(q["stck_mxpr"]),
		FloorPrice:       numeric.Int(q["stck_llam"]),
		SubstitutePrice:  numeric.Int(q["stck_sspr"]),
		FacePrice:        numeric.Float(q["stck_fcam"]),
		QuoteUnit:        numeric.Int(q["aspr_unit"]),
		DealQtyUnit:      numeric.Int(q["hts_deal_qty_unit_val"]),
		RestrictionWidth: numeric.Int(q["rstc_wdth_prc"]),

		ListedShares: numeric.Int64(q["lstn_stcn"]),
		Capital:      numeric.Decimal(q["cpfn"]),
		MarketCap:    numeric.Decimal(q["hts_avls"]),
		TurnoverRate: numeric.Float(q["vol_tnrt"]),

		ForeignExhaustRate: numeric.Float(q["hts_frgn_ehrt"]),
		ForeignHoldQty:     numeric.Int64(q["frgn_hldn_qty"]),
		ForeignNetBuyQty:   numeric.Int64(q["frgn_ntby_qty"]),
		ProgramNetBuyQty:   numeric.Int64(q["pgtr_ntby_qty"]),

		D250High:       numeric.Int(q["d250_hgpr"]),
		D250HighDate:   q["d250_hgpr_date"],
		D250HighRate:   numeric.Float(q["d250_hgpr_vrss_prpr_rate"]),
		D250Low:        numeric.Int(q["d250_lwpr"]),
		D250LowDate:    q["d250_lwpr_date"],
		D250LowRate:    numeric.Float(q["d250_lwpr_vrss_prpr_rate"]),
		YearHigh:       numeric.Int(q["stck_dryy_hgpr"]),
		YearHighDate:   q["dryy_hgpr_date"],
		RateVsYearHigh: numeric.Float(q["dryy_hgpr_vrss_prpr_rate"]),
		YearLow:        numeric.Int(q["stck_dryy_lwpr"]),
		YearLowDate:    q["dryy_lwpr_date"],
		RateVsYearLow:  numeric.Float(q["dryy_lwpr_vrss_prpr_rate"]),
		W52High:        numeric.Int(q["w52_hgpr"]),
		W52HighDate:    q["w52_hgpr_date"],
		W52HighRate:    numeric.Float(q["w52_hgpr_vrss_prpr_ctrt"]),
		W52Low:         numeric.Int(q["w52_lwpr"]),
		W52LowDate:     q["w52_lwpr_date"],
		W52LowRate:     numeric.Float(q["w52_lwpr_vrss_prpr_ctrt"]),

		LoanRemainRate:   numeric.Float(q["whol_loan_rmnd_rate"]),
		ShortSaleAllowed: q["ssts_yn"],
		LastShortSaleQty: numeric.Int64(q["last_ssts_cntg_qty"]),
		FaceCurrency:     q["fcam_cnnm"],
		CapitalCurrency:  q["cpfn_cnnm"],

		PER: numeric.Float(q["per"]),
		EPS: numeric.Float(q["eps"]),
		PBR: numeric.Float(q["pbr"]),
		BPS: numeric.Float(q["bps"]),
	}
}

func balanceRowFrom(key types.SheetKey, row map[string]string) types.BalanceRow {
	return types.BalanceRow{
		SheetKey:           key,
		CurrentAssets:      numeric.Decimal(row["cras"]),
		FixedAssets:        numeric.Decimal(row["fxas"]),
		TotalAssets:        numeric.Decimal(row["total_aset"]),
		CurrentLiabilities: numeric.Decimal(row["flow_lblt"]),
		FixedLiabilities:   numeric.Decimal(row["fix_lblt"]),
		TotalLiabilities:   numeric.Decimal(row["total_lblt"]),
		Capital:            numeric.Decimal(row["cpfn"]),
		CapitalSurplus:     numeric.Decimal(row["cfp_surp"]),
		RetainedEarnings:   numeric.Decimal(row["prfi_surp"]),
		TotalEquity:        numeric.Decimal(row["total_cptl"]),
	}
}

func incomeRowFrom(key types.SheetKey, row map[string]string) types.IncomeRow {
	return types.IncomeRow{
		SheetKey:        key,
		Revenue:         numeric.Decimal(row["sale_account"]),
		CostOfSales:     numeric.Decimal(row["sale_cost"]),
		GrossProfit:     numeric.Decimal(row["sale_totl_prfi"]),
		Depreciation:    numeric.Decimal(row["depr_cost"]),
		SGA:             numeric.Decimal(row["sell_mang"]),
		OperatingProfit: numeric.Decimal(row["bsop_prti"]),
		NonOpIncome:     numeric.Decimal(row["bsop_non_ernn"]),
		NonOpExpense:    numeric.Decimal(row["bsop_non_expn"]),
		OrdinaryProfit:  numeric.Decimal(row["op_prfi"]),
		ExtraGain:       numeric.Decimal(row["spec_prfi"]),
		ExtraLoss:       numeric.Decimal(row["spec_loss"]),
		NetIncome:       numeric.Decimal(row["thtr_ntin"]),
	}
}

func ratioRowFrom(key types.SheetKey, row map[string]string) types.RatioRow {
	return types.RatioRow{
		SheetKey:        key,
		RevenueGrowth:   numeric.Decimal(row["grs"]),
		OpProfitGrowth:  numeric.Decimal(row["bsop_prfi_inrt"]),
		NetIncomeGrowth: numeric.Decimal(row["ntin_inrt"]),
		ROE:             numeric.Decimal(row["roe_val"]),
		EPS:             numeric.Decimal(row["eps"]),
		SPS:             numeric.Decimal(row["sps"]),
		BPS:             numeric.Decimal(row["bps"]),
		ReserveRate:     numeric.Decimal(row["rsrv_rate"]),
		DebtRate:        numeric.Decimal(row["lblt_rate"]),
	}
}

func profitRowFrom(key types.SheetKey, row map[string]string) types.ProfitRow {
	return types.ProfitRow{
		SheetKey:        key,
		ReturnOnCapital: numeric.Decimal(row["cptl_ntin_rate"]),
		ReturnOnEquity:  numeric.Decimal(row["self_cptl_ntin_inrt"]),
		NetMargin:       numeric.Decimal(row["sale_ntin_rate"]),
		GrossMargin:     numeric.Decimal(row["sale_totl_rate"]),
	}
}

func otherRowFrom(key types.SheetKey, row map[string]string) types.OtherRow {
	return types.OtherRow{
		SheetKey: key,
		EBITDA:   numeric.Decimal(row["ebitda"]),
		EVEBITDA: numeric.Decimal(row["ev_ebitda"]),
	}
}
