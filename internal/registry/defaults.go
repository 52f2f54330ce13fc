/*

This file contains the default asset table for the reference deployment.
(Address, Symbol, Decimals, Collateral Factor, Oracle Symbol)

*/

package registry

import "github.com/stellarhub/defihub/internal/types"

// DefaultAssets is the testnet asset set. USDC sits in slot zero and is the
// reference asset for DEX quotes and reward payouts.
var DefaultAssets = []types.AssetConfig{
	{Address: "GBBD47IF6LWK7P7MDEVSCWR7DPUWV3NY3DTQEVFL4NAT4AQH3ZLLFLA5", Symbol: "USDC", Decimals: 6, CollateralFactorBps: 8500, OracleSymbol: "USDC"},
	{Address: "GCKFBEIYTKP5RDBKDC7QNURHCZGB2HMCQSZXEBT4OATXKBMUWQE5H7J4", Symbol: "USDT", Decimals: 6, CollateralFactorBps: 8500, OracleSymbol: "USDT"},
	{Address: "native", Symbol: "XLM", Decimals: 7, CollateralFactorBps: 7000, OracleSymbol: "XLM"},
	{Address: "GDXTJEK4JZNSTNQAWA53RZNS2MDXYD2SMT6Q7JH2CU2B6Y2DRX6XM3UB", Symbol: "BTC", Decimals: 8, CollateralFactorBps: 7500, OracleSymbol: "BTC"},
	{Address: "GBETHKBLNBSBXVLTKWLB6L3X3RTMAKKI64JUNNQO5EUXYYTYO3O3G2YH", Symbol: "ETH", Decimals: 18, CollateralFactorBps: 7500, OracleSymbol: "ETH"},
	{Address: "GBNZILSTVQZ4R7IKQDGHYGY2QXL5QOFJYQMXPKWRRM5PAV7Y4M67AQUA", Symbol: "AQUA", Decimals: 7, CollateralFactorBps: 6000, OracleSymbol: "AQUA"},
	{Address: "GDM4RQUQQUVSKQA7S6EM7XBZP3FCGH4Q7CL6TABQ7B2BEJ5ERARM2M5M", Symbol: "VELO", Decimals: 7, CollateralFactorBps: 6000, OracleSymbol: "VELO"},
	{Address: "GDSTRSHXHGJ7ZIVRBXEYE5Q74XUVCUSEKEBR7UCHEUUEK72N7I7KJ6JH", Symbol: "SHX", Decimals: 6, CollateralFactorBps: 6500, OracleSymbol: "SHX"},
	{Address: "GASBLVHS5FOABSDNW5SPPH3QRJYXY5JHA2AOA2QHH2FJLZBRXSG4SWXT", Symbol: "WXT", Decimals: 6, CollateralFactorBps: 6000, OracleSymbol: "WXT"},
	{Address: "GBNLJIYH34UWO5YZFA3A3HD3N76R6DOI33N4JONUOHEEYZYCAYTEJ5AK", Symbol: "RIO", Decimals: 7, CollateralFactorBps: 6000, OracleSymbol: "RIO"},
}
