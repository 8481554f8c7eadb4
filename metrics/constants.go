package metrics

const (
	MMinerHashes   = "miner.hashes"
	MMinerBlocks   = "miner.blocks"
	MMinerAborted  = "miner.aborted"
	MMinerDuration = "miner.duration"

	MChainBlocksAppended    = "chain.blocks_appended"
	MChainAppendRejected    = "chain.append_rejected"
	MChainValidations       = "chain.validations"
	MChainInvalidValidation = "chain.invalid_validations"
)
