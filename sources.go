package main

import (
	// Register every grocery source through its init()
	_ "github.com/rubiojr/basket/pkg/sources/bigbasket"
	_ "github.com/rubiojr/basket/pkg/sources/blinkit"
	_ "github.com/rubiojr/basket/pkg/sources/catalog"
	_ "github.com/rubiojr/basket/pkg/sources/gourmetgarden"
	_ "github.com/rubiojr/basket/pkg/sources/healthybuddha"
	_ "github.com/rubiojr/basket/pkg/sources/instamart"
	_ "github.com/rubiojr/basket/pkg/sources/naturesbasket"
	_ "github.com/rubiojr/basket/pkg/sources/zepto"
)
