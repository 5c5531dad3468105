// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

// SciDBGoClientVersion is the version of the SciDB Go client.
const SciDBGoClientVersion = "0.9.0"
