package stub

import (
	"chain-gateway/internal/domain"
)

// Market is a complete set of stub upstreams seeded with a consistent market.
type Market struct {
	Chainlink *PriceSource
	Uniswap   *PriceSource
	CoinGecko *PriceSource

	UniswapV3 *PoolSource
	SushiSwap *PoolSource
	Curve     *PoolSource

	Gas     *GasSource
	Volume  *VolumeSource
	Bridges []*BridgeSource
}

// PriceSources returns the price feeds in default fallback order.
func (m *Market) PriceSources() []*PriceSource {
	return []*PriceSource{m.Chainlink, m.Uniswap, m.CoinGecko}
}

// PoolSources returns the DEX protocols.
func (m *Market) PoolSources() []*PoolSource {
	return []*PoolSource{m.UniswapV3, m.SushiSwap, m.Curve}
}

// Bridge returns the bridge with the given name, or nil.
func (m *Market) Bridge(name string) *BridgeSource {
	for _, b := range m.Bridges {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

var seedPrices = map[string]float64{
	"ETH":   3000,
	"WETH":  3000,
	"WBTC":  60000,
	"USDC":  1,
	"USDT":  1,
	"DAI":   1,
	"MATIC": 0.7,
	"BNB":   550,
	"AVAX":  35,
	"SOL":   150,
}

var seedChains = []int64{
	domain.ChainEthereum,
	domain.ChainPolygon,
	domain.ChainBSC,
	domain.ChainAvalanche,
	domain.ChainSolana,
}

// NewMarket returns stub upstreams seeded with prices, USDC pools, gas, volume
// and three bridges on every well-known chain.
func NewMarket() *Market {
	m := &Market{
		Chainlink: NewPriceSource(domain.SourceChainlink, 0.99),
		Uniswap:   NewPriceSource(domain.SourceUniswap, 0.9),
		CoinGecko: NewPriceSource(domain.SourceCoinGecko, 0.85),
		UniswapV3: NewPoolSource("uniswap_v3"),
		SushiSwap: NewPoolSource("sushiswap"),
		Curve:     NewPoolSource("curve"),
		Gas:       NewGasSource("stub"),
		Volume:    NewVolumeSource("stub"),
		Bridges: []*BridgeSource{
			NewBridgeSource("stargate", 0.0006, 60, 200000, domain.MustAmount("50000000")),
			NewBridgeSource("axelar", 0.001, 180, 250000, domain.MustAmount("20000000")),
			NewBridgeSource("wormhole", 0.0008, 900, 300000, domain.MustAmount("30000000")),
		},
	}

	for _, chainID := range seedChains {
		for token, price := range seedPrices {
			m.Chainlink.SetPrice(token, chainID, price)
			m.Uniswap.SetPrice(token, chainID, price*1.001)
			m.CoinGecko.SetPrice(token, chainID, price*0.999)
			m.CoinGecko.SetHistoricalPrice(token, chainID, price*0.95)

			if token == "USDC" {
				continue
			}
			m.UniswapV3.SetPool(token, "USDC", chainID, domain.MustAmount("5000000"), 0.003)
			m.SushiSwap.SetPool(token, "USDC", chainID, domain.MustAmount("2000000"), 0.0025)
			m.Curve.SetPool(token, "USDC", chainID, domain.MustAmount("8000000"), 0.0004)
		}

		if chainID == domain.ChainSolana {
			m.Gas.SetPrices(chainID, "1000", "10000", "100000")
		} else {
			m.Gas.SetPrices(chainID, "20000000000", "30000000000", "50000000000")
		}

		m.Volume.SetVolume("ETH/USDC", chainID, domain.Timeframe24h, domain.MustAmount("40000"), 120_000_000, 52000)
		m.Volume.SetChainVolume(domain.ChainVolume{
			ChainID:           chainID,
			TotalVolumeUSD24h: 450_000_000,
			TxCount24h:        1_200_000,
			TopPairs: []domain.PairVolume{
				{Pair: "ETH/USDC", Volume: domain.MustAmount("40000"), VolumeUSD: 120_000_000},
				{Pair: "WBTC/USDC", Volume: domain.MustAmount("1500"), VolumeUSD: 90_000_000},
				{Pair: "USDT/USDC", Volume: domain.MustAmount("60000000"), VolumeUSD: 60_000_000},
				{Pair: "DAI/USDC", Volume: domain.MustAmount("25000000"), VolumeUSD: 25_000_000},
				{Pair: "MATIC/USDC", Volume: domain.MustAmount("20000000"), VolumeUSD: 14_000_000},
				{Pair: "AVAX/USDC", Volume: domain.MustAmount("300000"), VolumeUSD: 10_500_000},
			},
		})
	}
	return m
}
