package domain

// ChainFamily groups chains by execution environment.
type ChainFamily string

const (
	FamilyEVM    ChainFamily = "evm"
	FamilySolana ChainFamily = "solana"
)

// Chain describes a supported network and its native asset.
type Chain struct {
	ID             int64
	Name           string
	NativeSymbol   string // native asset used to price gas
	NativeDecimals int32  // decimals of the unit gas prices are quoted in
	Family         ChainFamily
}

// Well-known chain ids.
const (
	ChainEthereum  int64 = 1
	ChainBSC       int64 = 56
	ChainPolygon   int64 = 137
	ChainFantom    int64 = 250
	ChainAvalanche int64 = 43114
	ChainSolana    int64 = 101
)

var chains = map[int64]Chain{
	ChainEthereum:  {ID: ChainEthereum, Name: "ethereum", NativeSymbol: "ETH", NativeDecimals: 18, Family: FamilyEVM},
	ChainBSC:       {ID: ChainBSC, Name: "bsc", NativeSymbol: "BNB", NativeDecimals: 18, Family: FamilyEVM},
	ChainPolygon:   {ID: ChainPolygon, Name: "polygon", NativeSymbol: "MATIC", NativeDecimals: 18, Family: FamilyEVM},
	ChainFantom:    {ID: ChainFantom, Name: "fantom", NativeSymbol: "FTM", NativeDecimals: 18, Family: FamilyEVM},
	ChainAvalanche: {ID: ChainAvalanche, Name: "avalanche", NativeSymbol: "AVAX", NativeDecimals: 18, Family: FamilyEVM},
	// Solana priority fees are quoted in micro-lamports: 1 SOL = 1e15 micro-lamports.
	ChainSolana: {ID: ChainSolana, Name: "solana", NativeSymbol: "SOL", NativeDecimals: 15, Family: FamilySolana},
}

// LookupChain returns the chain registered under id.
func LookupChain(id int64) (Chain, bool) {
	c, ok := chains[id]
	return c, ok
}

// NativeSymbol returns the native asset symbol for a chain, or "" if unknown.
func NativeSymbol(id int64) string {
	return chains[id].NativeSymbol
}
